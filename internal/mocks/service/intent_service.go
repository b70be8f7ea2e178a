// Package service contains hand-written testify doubles for the domain
// service interfaces used in unit tests.
package service

import (
	"context"

	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockIntentService is a mock implementation of service.IntentService.
type MockIntentService struct {
	mock.Mock
}

// NewMockIntentService creates a new mock wired to the test lifecycle.
func NewMockIntentService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIntentService {
	m := &MockIntentService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockIntentService) ClassifyIntent(ctx context.Context, text string, memberCtx service.MemberContext) (entity.Intent, error) {
	args := m.Called(ctx, text, memberCtx)
	intent, _ := args.Get(0).(entity.Intent)

	return intent, args.Error(1)
}

func (m *MockIntentService) ExtractName(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)

	return args.String(0), args.Error(1)
}

func (m *MockIntentService) ExtractCity(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)

	return args.String(0), args.Error(1)
}

func (m *MockIntentService) ExtractLagosArea(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)

	return args.String(0), args.Error(1)
}

func (m *MockIntentService) ExtractMembership(ctx context.Context, text string) (entity.MembershipType, error) {
	args := m.Called(ctx, text)
	plan, _ := args.Get(0).(entity.MembershipType)

	return plan, args.Error(1)
}

func (m *MockIntentService) ExtractProductQuery(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)

	return args.String(0), args.Error(1)
}

func (m *MockIntentService) InterpretCartAction(ctx context.Context, text string, candidates []entity.Product) (*service.CartAction, error) {
	args := m.Called(ctx, text, candidates)
	action, _ := args.Get(0).(*service.CartAction)

	return action, args.Error(1)
}

func (m *MockIntentService) GenerateReply(ctx context.Context, text string, memberCtx service.MemberContext) (string, error) {
	args := m.Called(ctx, text, memberCtx)

	return args.String(0), args.Error(1)
}
