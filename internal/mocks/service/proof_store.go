package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProofStore is a mock implementation of service.ProofStore.
type MockProofStore struct {
	mock.Mock
}

// NewMockProofStore creates a new mock wired to the test lifecycle.
func NewMockProofStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProofStore {
	m := &MockProofStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockProofStore) Store(ctx context.Context, phone string, mediaURL string) (string, error) {
	args := m.Called(ctx, phone, mediaURL)

	return args.String(0), args.Error(1)
}

func (m *MockProofStore) StoreImage(ctx context.Context, key string, data []byte) (string, error) {
	args := m.Called(ctx, key, data)

	return args.String(0), args.Error(1)
}
