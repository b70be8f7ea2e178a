package repository

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSettingRepository is a mock implementation of repository.SettingRepository.
type MockSettingRepository struct {
	mock.Mock
}

// NewMockSettingRepository creates a new mock wired to the test lifecycle.
func NewMockSettingRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSettingRepository {
	m := &MockSettingRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)

	return args.String(0), args.Error(1)
}

func (m *MockSettingRepository) Set(ctx context.Context, key string, value string) error {
	return m.Called(ctx, key, value).Error(0)
}
