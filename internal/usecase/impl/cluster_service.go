package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clustercart/config"
	"clustercart/internal/domain/entity"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/repository"
	"clustercart/internal/domain/service"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type clusterService struct {
	clusterRepo   repository.ClusterRepository
	memberRepo    repository.MemberRepository
	qrcodeService service.QRCodeService
	messenger     service.Messenger
	config        *config.Config
	logger        *slog.Logger
}

// ClusterServiceParams holds dependencies for ClusterService, injected by Fx.
type ClusterServiceParams struct {
	fx.In

	ClusterRepo   repository.ClusterRepository
	MemberRepo    repository.MemberRepository
	QRCodeService service.QRCodeService
	Messenger     service.Messenger
	Config        *config.Config
	Logger        *slog.Logger
}

// NewClusterService creates a new cluster service instance
func NewClusterService(params ClusterServiceParams) usecase.ClusterUsecase {
	return &clusterService{
		clusterRepo:   params.ClusterRepo,
		memberRepo:    params.MemberRepo,
		qrcodeService: params.QRCodeService,
		messenger:     params.Messenger,
		config:        params.Config,
		logger:        params.Logger,
	}
}

// CreateCluster creates an active cluster with the creator as owner and sole
// member, and returns the invite deep link plus its QR code.
func (s *clusterService) CreateCluster(ctx context.Context, owner *entity.Member, name string, maxPeople int) (*usecase.ClusterInvite, error) {
	if maxPeople < 2 {
		maxPeople = s.config.Commerce.DefaultClusterLimit
	}

	cluster := &entity.Cluster{
		Name:       strings.TrimSpace(name),
		OwnerPhone: owner.Phone,
		MaxPeople:  maxPeople,
		Members:    []string{owner.Phone},
		IsActive:   true,
		CreatedAt:  time.Now(),
	}

	id, err := s.clusterRepo.Create(ctx, cluster)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cluster")
	}
	cluster.ID = id

	owner.CurrentClusterID = id
	owner.UpdatedAt = time.Now()
	if err := s.memberRepo.Update(ctx, owner); err != nil {
		return nil, errors.Wrap(err, "failed to set owner active cluster")
	}

	deepLink := s.inviteDeepLink(id)
	qrCode, err := s.qrcodeService.GenerateInviteQR(deepLink)
	if err != nil {
		// The invite link still works without the QR image.
		s.logger.Warn("invite QR generation failed", slog.String("cluster_id", id), slog.Any("error", err))
		qrCode = nil
	}

	return &usecase.ClusterInvite{
		Cluster:  cluster,
		DeepLink: deepLink,
		QRCode:   qrCode,
	}, nil
}

// JoinCluster adds the member to the cluster after checking membership
// payment and capacity, then notifies the owner.
func (s *clusterService) JoinCluster(ctx context.Context, member *entity.Member, clusterID string) (*entity.Cluster, error) {
	cluster, err := s.clusterRepo.FindByID(ctx, clusterID)
	if err != nil {
		if errors.Is(err, repository.ErrClusterNotFound) {
			return nil, domainerrors.ErrClusterNotFound
		}

		return nil, errors.Wrap(err, "failed to find cluster")
	}

	if !member.IsPaid() {
		return nil, domainerrors.ErrNotEligible
	}

	if cluster.HasMember(member.Phone) {
		// Already in; just point the active cart at it.
		return cluster, s.setActiveCluster(ctx, member, cluster.ID)
	}

	if cluster.IsFull() {
		return nil, domainerrors.ErrClusterFull
	}

	if err := s.clusterRepo.AddMember(ctx, cluster.ID, member.Phone); err != nil {
		switch {
		case errors.Is(err, repository.ErrClusterFull):
			// A concurrent join took the last spot after our read.
			return nil, domainerrors.ErrClusterFull
		case errors.Is(err, repository.ErrClusterNotFound):
			return nil, domainerrors.ErrClusterNotFound
		}

		return nil, errors.Wrap(err, "failed to add cluster member")
	}
	cluster.Members = append(cluster.Members, member.Phone)

	if err := s.setActiveCluster(ctx, member, cluster.ID); err != nil {
		return nil, err
	}

	// Owner notification is best-effort.
	joinerName := member.Name
	if joinerName == "" {
		joinerName = member.Phone
	}
	notice := fmt.Sprintf("%s just joined your cluster %q (%d/%d members).",
		joinerName, cluster.Name, len(cluster.Members), cluster.MaxPeople)
	if _, err := s.messenger.Send(ctx, cluster.OwnerPhone, notice, ""); err != nil {
		s.logger.Warn("cluster owner notification failed",
			slog.String("cluster_id", cluster.ID), slog.Any("error", err))
	}

	return cluster, nil
}

// RenameCluster renames a cluster the member owns.
func (s *clusterService) RenameCluster(ctx context.Context, member *entity.Member, clusterID string, newName string) error {
	cluster, err := s.clusterRepo.FindByID(ctx, clusterID)
	if err != nil {
		if errors.Is(err, repository.ErrClusterNotFound) {
			return domainerrors.ErrClusterNotFound
		}

		return errors.Wrap(err, "failed to find cluster")
	}

	if !cluster.IsOwner(member.Phone) {
		return domainerrors.ErrNotOwner
	}

	cluster.Name = strings.TrimSpace(newName)
	if err := s.clusterRepo.Update(ctx, cluster); err != nil {
		return errors.Wrap(err, "failed to rename cluster")
	}

	return nil
}

// GetMemberClusters lists the active clusters the member belongs to.
func (s *clusterService) GetMemberClusters(ctx context.Context, phone string) ([]entity.Cluster, error) {
	clusters, err := s.clusterRepo.FindByMemberPhone(ctx, phone)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list member clusters")
	}

	return clusters, nil
}

// SwitchActiveCluster points the member's active cart at the cluster with
// the given name when they belong to one.
func (s *clusterService) SwitchActiveCluster(ctx context.Context, member *entity.Member, name string) (*entity.Cluster, error) {
	clusters, err := s.GetMemberClusters(ctx, member.Phone)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range clusters {
		if strings.ToLower(clusters[i].Name) != needle {
			continue
		}
		if err := s.setActiveCluster(ctx, member, clusters[i].ID); err != nil {
			return nil, err
		}

		return &clusters[i], nil
	}

	return nil, domainerrors.ErrClusterNotFound
}

func (s *clusterService) setActiveCluster(ctx context.Context, member *entity.Member, clusterID string) error {
	member.CurrentClusterID = clusterID
	member.UpdatedAt = time.Now()
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return errors.Wrap(err, "failed to set active cluster")
	}

	return nil
}

// inviteDeepLink builds the wa.me link that lands a prospect in the bot with
// the join token prefilled.
func (s *clusterService) inviteDeepLink(clusterID string) string {
	number := strings.TrimPrefix(s.config.Twilio.FromNumber, "whatsapp:")
	number = strings.TrimPrefix(number, "+")

	return fmt.Sprintf("https://wa.me/%s?text=JOIN_CLUSTER_%s", number, clusterID)
}
