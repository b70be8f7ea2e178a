package repository

import (
	"context"
	"errors"

	"clustercart/internal/domain/entity"
)

// ErrClusterNotFound is a domain-specific error returned when a cluster is not found.
var ErrClusterNotFound = errors.New("cluster not found")

// ErrClusterConflict is returned when an optimistic update lost the race and
// should be retried against a fresh read.
var ErrClusterConflict = errors.New("cluster modified concurrently")

// ErrClusterFull is returned when a member append would exceed max_people.
var ErrClusterFull = errors.New("cluster at capacity")

// ClusterRepository defines the standard operations for cluster persistence.
type ClusterRepository interface {
	// FindByID retrieves a single active cluster by its document id.
	FindByID(ctx context.Context, id string) (*entity.Cluster, error)

	// FindByMemberPhone retrieves the active clusters the phone belongs to.
	FindByMemberPhone(ctx context.Context, phone string) ([]entity.Cluster, error)

	// Create persists a new cluster and returns its assigned id.
	Create(ctx context.Context, cluster *entity.Cluster) (string, error)

	// Update modifies an existing cluster entity in the storage.
	Update(ctx context.Context, cluster *entity.Cluster) error

	// UpdateItems replaces the shared cart if the stored version still matches
	// expectedVersion, bumping the version on success. Returns
	// ErrClusterConflict when another edit won the race.
	UpdateItems(ctx context.Context, id string, items []entity.LineItem, expectedVersion int64) error

	// AddMember appends the phone to the member list. The capacity check is
	// part of the update itself, so concurrent joins cannot overshoot
	// max_people; a join that loses the last spot returns ErrClusterFull.
	AddMember(ctx context.Context, id string, phone string) error
}
