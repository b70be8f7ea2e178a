package repository

import (
	"context"

	"clustercart/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockCommissionRepository is a mock implementation of repository.CommissionRepository.
type MockCommissionRepository struct {
	mock.Mock
}

// NewMockCommissionRepository creates a new mock wired to the test lifecycle.
func NewMockCommissionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCommissionRepository {
	m := &MockCommissionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCommissionRepository) Create(ctx context.Context, commission *entity.Commission) error {
	return m.Called(ctx, commission).Error(0)
}

func (m *MockCommissionRepository) CountByReferredPhone(ctx context.Context, phone string) (int64, error) {
	args := m.Called(ctx, phone)

	return args.Get(0).(int64), args.Error(1)
}
