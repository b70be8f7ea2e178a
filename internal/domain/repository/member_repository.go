// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"clustercart/internal/domain/entity"
)

// ErrMemberNotFound is a domain-specific error returned when a member is not found.
var ErrMemberNotFound = errors.New("member not found")

// MemberRepository defines the standard operations for member persistence.
// The application layer will depend on this interface, not the concrete implementation.
type MemberRepository interface {
	// FindByPhone retrieves a single member by phone number.
	FindByPhone(ctx context.Context, phone string) (*entity.Member, error)

	// Create persists a new member entity to the storage.
	Create(ctx context.Context, member *entity.Member) error

	// Update modifies an existing member entity in the storage.
	Update(ctx context.Context, member *entity.Member) error

	// List retrieves all members, most recently joined first.
	List(ctx context.Context, limit int) ([]entity.Member, error)
}
