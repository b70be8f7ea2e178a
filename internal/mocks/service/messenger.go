package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockMessenger is a mock implementation of service.Messenger.
type MockMessenger struct {
	mock.Mock
}

// NewMockMessenger creates a new mock wired to the test lifecycle.
func NewMockMessenger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMessenger {
	m := &MockMessenger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMessenger) Send(ctx context.Context, phone string, body string, mediaURL string) (string, error) {
	args := m.Called(ctx, phone, body, mediaURL)

	return args.String(0), args.Error(1)
}
