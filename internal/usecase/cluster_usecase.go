package usecase

import (
	"context"

	"clustercart/internal/domain/entity"
)

// ClusterInvite is the shareable invite produced for a new cluster.
type ClusterInvite struct {
	Cluster  *entity.Cluster
	DeepLink string // wa.me link carrying the JOIN_CLUSTER_<id> token.
	QRCode   []byte // PNG rendering of the deep link.
}

// ClusterUsecase defines group-cart management operations.
type ClusterUsecase interface {
	// CreateCluster creates an active cluster with the creator as owner and
	// sole member, and returns the invite deep link plus its QR code.
	CreateCluster(ctx context.Context, owner *entity.Member, name string, maxPeople int) (*ClusterInvite, error)

	// JoinCluster adds the member to the cluster. The member must have a paid
	// membership and the cluster must have capacity. The owner is notified.
	JoinCluster(ctx context.Context, member *entity.Member, clusterID string) (*entity.Cluster, error)

	// RenameCluster renames a cluster the member owns.
	RenameCluster(ctx context.Context, member *entity.Member, clusterID string, newName string) error

	// GetMemberClusters lists the active clusters the member belongs to.
	GetMemberClusters(ctx context.Context, phone string) ([]entity.Cluster, error)

	// SwitchActiveCluster points the member's active cart at the named
	// cluster when they belong to one with that name.
	SwitchActiveCluster(ctx context.Context, member *entity.Member, name string) (*entity.Cluster, error)
}
