package repository

import (
	"context"

	"clustercart/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

// NewMockOrderRepository creates a new mock wired to the test lifecycle.
func NewMockOrderRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrderRepository {
	m := &MockOrderRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entity.Order) (string, error) {
	args := m.Called(ctx, order)

	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) FindBySlug(ctx context.Context, slug string) (*entity.Order, error) {
	args := m.Called(ctx, slug)
	order, _ := args.Get(0).(*entity.Order)

	return order, args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *entity.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) SetStatusBySlug(ctx context.Context, slug string, status entity.OrderStatus) error {
	return m.Called(ctx, slug, status).Error(0)
}

func (m *MockOrderRepository) UpsertClusterPayment(ctx context.Context, slug string, payment entity.ClusterPayment) error {
	return m.Called(ctx, slug, payment).Error(0)
}

func (m *MockOrderRepository) SetClusterPaidAmount(ctx context.Context, slug string, amountKobo int64) error {
	return m.Called(ctx, slug, amountKobo).Error(0)
}

func (m *MockOrderRepository) CountPaidByMember(ctx context.Context, phone string) (int64, error) {
	args := m.Called(ctx, phone)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]entity.Order)

	return orders, args.Error(1)
}
