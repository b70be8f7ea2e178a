package service

import (
	"context"

	"clustercart/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockPaymentGateway is a mock implementation of service.PaymentGateway.
type MockPaymentGateway struct {
	mock.Mock
}

// NewMockPaymentGateway creates a new mock wired to the test lifecycle.
func NewMockPaymentGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPaymentGateway {
	m := &MockPaymentGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPaymentGateway) InitializeTransaction(ctx context.Context, email string, amountKobo int64, metadata map[string]any) (*service.Transaction, error) {
	args := m.Called(ctx, email, amountKobo, metadata)
	tx, _ := args.Get(0).(*service.Transaction)

	return tx, args.Error(1)
}

func (m *MockPaymentGateway) VerifyTransaction(ctx context.Context, reference string) (*service.Transaction, error) {
	args := m.Called(ctx, reference)
	tx, _ := args.Get(0).(*service.Transaction)

	return tx, args.Error(1)
}

func (m *MockPaymentGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}
