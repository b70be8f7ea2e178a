package repository

import (
	"context"

	"clustercart/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockClusterRepository is a mock implementation of repository.ClusterRepository.
type MockClusterRepository struct {
	mock.Mock
}

// NewMockClusterRepository creates a new mock wired to the test lifecycle.
func NewMockClusterRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClusterRepository {
	m := &MockClusterRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockClusterRepository) FindByID(ctx context.Context, id string) (*entity.Cluster, error) {
	args := m.Called(ctx, id)
	cluster, _ := args.Get(0).(*entity.Cluster)

	return cluster, args.Error(1)
}

func (m *MockClusterRepository) FindByMemberPhone(ctx context.Context, phone string) ([]entity.Cluster, error) {
	args := m.Called(ctx, phone)
	clusters, _ := args.Get(0).([]entity.Cluster)

	return clusters, args.Error(1)
}

func (m *MockClusterRepository) Create(ctx context.Context, cluster *entity.Cluster) (string, error) {
	args := m.Called(ctx, cluster)

	return args.String(0), args.Error(1)
}

func (m *MockClusterRepository) Update(ctx context.Context, cluster *entity.Cluster) error {
	return m.Called(ctx, cluster).Error(0)
}

func (m *MockClusterRepository) UpdateItems(ctx context.Context, id string, items []entity.LineItem, expectedVersion int64) error {
	return m.Called(ctx, id, items, expectedVersion).Error(0)
}

func (m *MockClusterRepository) AddMember(ctx context.Context, id string, phone string) error {
	return m.Called(ctx, id, phone).Error(0)
}
