// Package repository contains hand-written testify doubles for the
// repository interfaces used in unit tests.
package repository

import (
	"context"

	"clustercart/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockMemberRepository is a mock implementation of repository.MemberRepository.
type MockMemberRepository struct {
	mock.Mock
}

// NewMockMemberRepository creates a new mock wired to the test lifecycle.
func NewMockMemberRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMemberRepository {
	m := &MockMemberRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMemberRepository) FindByPhone(ctx context.Context, phone string) (*entity.Member, error) {
	args := m.Called(ctx, phone)
	member, _ := args.Get(0).(*entity.Member)

	return member, args.Error(1)
}

func (m *MockMemberRepository) Create(ctx context.Context, member *entity.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockMemberRepository) Update(ctx context.Context, member *entity.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockMemberRepository) List(ctx context.Context, limit int) ([]entity.Member, error) {
	args := m.Called(ctx, limit)
	members, _ := args.Get(0).([]entity.Member)

	return members, args.Error(1)
}
