// Package usecase contains hand-written testify doubles for the application
// usecase interfaces used in unit tests.
package usecase

import (
	"context"

	"clustercart/internal/domain/entity"
	"clustercart/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockCartUsecase is a mock implementation of usecase.CartUsecase.
type MockCartUsecase struct {
	mock.Mock
}

// NewMockCartUsecase creates a new mock wired to the test lifecycle.
func NewMockCartUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCartUsecase {
	m := &MockCartUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCartUsecase) GetActiveCart(ctx context.Context, member *entity.Member, forcePersonal bool) (*usecase.ActiveCart, error) {
	args := m.Called(ctx, member, forcePersonal)
	cart, _ := args.Get(0).(*usecase.ActiveCart)

	return cart, args.Error(1)
}

func (m *MockCartUsecase) AddItem(ctx context.Context, member *entity.Member, product *entity.Product, qty int) (*usecase.ActiveCart, error) {
	args := m.Called(ctx, member, product, qty)
	cart, _ := args.Get(0).(*usecase.ActiveCart)

	return cart, args.Error(1)
}

func (m *MockCartUsecase) RemoveItem(ctx context.Context, member *entity.Member, query string) (*usecase.RemoveResult, error) {
	args := m.Called(ctx, member, query)
	result, _ := args.Get(0).(*usecase.RemoveResult)

	return result, args.Error(1)
}

func (m *MockCartUsecase) ClearActiveCart(ctx context.Context, member *entity.Member) error {
	return m.Called(ctx, member).Error(0)
}

// MockClusterUsecase is a mock implementation of usecase.ClusterUsecase.
type MockClusterUsecase struct {
	mock.Mock
}

// NewMockClusterUsecase creates a new mock wired to the test lifecycle.
func NewMockClusterUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClusterUsecase {
	m := &MockClusterUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockClusterUsecase) CreateCluster(ctx context.Context, owner *entity.Member, name string, maxPeople int) (*usecase.ClusterInvite, error) {
	args := m.Called(ctx, owner, name, maxPeople)
	invite, _ := args.Get(0).(*usecase.ClusterInvite)

	return invite, args.Error(1)
}

func (m *MockClusterUsecase) JoinCluster(ctx context.Context, member *entity.Member, clusterID string) (*entity.Cluster, error) {
	args := m.Called(ctx, member, clusterID)
	cluster, _ := args.Get(0).(*entity.Cluster)

	return cluster, args.Error(1)
}

func (m *MockClusterUsecase) RenameCluster(ctx context.Context, member *entity.Member, clusterID string, newName string) error {
	return m.Called(ctx, member, clusterID, newName).Error(0)
}

func (m *MockClusterUsecase) GetMemberClusters(ctx context.Context, phone string) ([]entity.Cluster, error) {
	args := m.Called(ctx, phone)
	clusters, _ := args.Get(0).([]entity.Cluster)

	return clusters, args.Error(1)
}

func (m *MockClusterUsecase) SwitchActiveCluster(ctx context.Context, member *entity.Member, name string) (*entity.Cluster, error) {
	args := m.Called(ctx, member, name)
	cluster, _ := args.Get(0).(*entity.Cluster)

	return cluster, args.Error(1)
}

// MockOrderUsecase is a mock implementation of usecase.OrderUsecase.
type MockOrderUsecase struct {
	mock.Mock
}

// NewMockOrderUsecase creates a new mock wired to the test lifecycle.
func NewMockOrderUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrderUsecase {
	m := &MockOrderUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockOrderUsecase) CreateOrderFromCart(ctx context.Context, member *entity.Member) (*usecase.CheckoutResult, error) {
	args := m.Called(ctx, member)
	result, _ := args.Get(0).(*usecase.CheckoutResult)

	return result, args.Error(1)
}

func (m *MockOrderUsecase) CreateOrderFromText(ctx context.Context, member *entity.Member, text string) (*entity.Order, error) {
	args := m.Called(ctx, member, text)
	order, _ := args.Get(0).(*entity.Order)

	return order, args.Error(1)
}

func (m *MockOrderUsecase) GetOrder(ctx context.Context, slug string) (*entity.Order, error) {
	args := m.Called(ctx, slug)
	order, _ := args.Get(0).(*entity.Order)

	return order, args.Error(1)
}

func (m *MockOrderUsecase) MarkPaid(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *MockOrderUsecase) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]entity.Order)

	return orders, args.Error(1)
}

// MockReferralUsecase is a mock implementation of usecase.ReferralUsecase.
type MockReferralUsecase struct {
	mock.Mock
}

// NewMockReferralUsecase creates a new mock wired to the test lifecycle.
func NewMockReferralUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReferralUsecase {
	m := &MockReferralUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockReferralUsecase) AwardIfEligible(ctx context.Context, order *entity.Order) error {
	return m.Called(ctx, order).Error(0)
}

// MockAdminUsecase is a mock implementation of usecase.AdminUsecase.
type MockAdminUsecase struct {
	mock.Mock
}

// NewMockAdminUsecase creates a new mock wired to the test lifecycle.
func NewMockAdminUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAdminUsecase {
	m := &MockAdminUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAdminUsecase) IsAdmin(phone string) bool {
	return m.Called(phone).Bool(0)
}

func (m *MockAdminUsecase) HandleCommand(ctx context.Context, phone string, command string) (string, error) {
	args := m.Called(ctx, phone, command)

	return args.String(0), args.Error(1)
}

func (m *MockAdminUsecase) Login(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)

	return args.String(0), args.Error(1)
}

func (m *MockAdminUsecase) Broadcast(ctx context.Context, message string) (*usecase.BroadcastResult, error) {
	args := m.Called(ctx, message)
	result, _ := args.Get(0).(*usecase.BroadcastResult)

	return result, args.Error(1)
}

func (m *MockAdminUsecase) ListMembers(ctx context.Context, limit int) ([]entity.Member, error) {
	args := m.Called(ctx, limit)
	members, _ := args.Get(0).([]entity.Member)

	return members, args.Error(1)
}

func (m *MockAdminUsecase) ListNotifications(ctx context.Context, limit int) ([]entity.Notification, error) {
	args := m.Called(ctx, limit)
	notifications, _ := args.Get(0).([]entity.Notification)

	return notifications, args.Error(1)
}

// MockConversationUsecase is a mock implementation of usecase.ConversationUsecase.
type MockConversationUsecase struct {
	mock.Mock
}

// NewMockConversationUsecase creates a new mock wired to the test lifecycle.
func NewMockConversationUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockConversationUsecase {
	m := &MockConversationUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockConversationUsecase) Process(ctx context.Context, msg *usecase.IncomingMessage) (*usecase.Reply, error) {
	args := m.Called(ctx, msg)
	reply, _ := args.Get(0).(*usecase.Reply)

	return reply, args.Error(1)
}

func (m *MockConversationUsecase) RecordDeliveryStatus(ctx context.Context, status *entity.MessageStatus) error {
	return m.Called(ctx, status).Error(0)
}

// MockPaymentUsecase is a mock implementation of usecase.PaymentUsecase.
type MockPaymentUsecase struct {
	mock.Mock
}

// NewMockPaymentUsecase creates a new mock wired to the test lifecycle.
func NewMockPaymentUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPaymentUsecase {
	m := &MockPaymentUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPaymentUsecase) HandleEvent(ctx context.Context, event *usecase.WebhookEvent) error {
	return m.Called(ctx, event).Error(0)
}
