package repository

import (
	"context"

	"clustercart/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository is a mock implementation of repository.MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

// NewMockMessageRepository creates a new mock wired to the test lifecycle.
func NewMockMessageRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMessageRepository {
	m := &MockMessageRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMessageRepository) Log(ctx context.Context, message *entity.MessageLog) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockMessageRepository) LogStatus(ctx context.Context, status *entity.MessageStatus) error {
	return m.Called(ctx, status).Error(0)
}

// MockMessageContextRepository is a mock implementation of repository.MessageContextRepository.
type MockMessageContextRepository struct {
	mock.Mock
}

// NewMockMessageContextRepository creates a new mock wired to the test lifecycle.
func NewMockMessageContextRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMessageContextRepository {
	m := &MockMessageContextRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMessageContextRepository) Save(ctx context.Context, messageContext *entity.MessageContext) error {
	return m.Called(ctx, messageContext).Error(0)
}

func (m *MockMessageContextRepository) FindBySID(ctx context.Context, sid string) (*entity.MessageContext, error) {
	args := m.Called(ctx, sid)
	messageContext, _ := args.Get(0).(*entity.MessageContext)

	return messageContext, args.Error(1)
}
