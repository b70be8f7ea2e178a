package repository

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCounterRepository is a mock implementation of repository.CounterRepository.
type MockCounterRepository struct {
	mock.Mock
}

// NewMockCounterRepository creates a new mock wired to the test lifecycle.
func NewMockCounterRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCounterRepository {
	m := &MockCounterRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCounterRepository) Next(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)

	return args.Get(0).(int64), args.Error(1)
}
