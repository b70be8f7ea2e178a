package impl

import (
	"context"
	"strings"
	"time"

	"clustercart/internal/domain/entity"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/repository"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type cartService struct {
	cartRepo    repository.CartRepository
	clusterRepo repository.ClusterRepository
}

// CartServiceParams holds dependencies for CartService, injected by Fx.
type CartServiceParams struct {
	fx.In

	CartRepo    repository.CartRepository
	ClusterRepo repository.ClusterRepository
}

// NewCartService creates a new cart service instance
func NewCartService(params CartServiceParams) usecase.CartUsecase {
	return &cartService{
		cartRepo:    params.CartRepo,
		clusterRepo: params.ClusterRepo,
	}
}

// GetActiveCart resolves the cart the member is operating on. Members with an
// active cluster operate on the cluster's shared items unless forcePersonal
// is set; everyone else operates on their personal cart.
func (s *cartService) GetActiveCart(ctx context.Context, member *entity.Member, forcePersonal bool) (*usecase.ActiveCart, error) {
	if !forcePersonal && member.CurrentClusterID != "" {
		cluster, err := s.clusterRepo.FindByID(ctx, member.CurrentClusterID)
		if err == nil {
			return &usecase.ActiveCart{
				Items:     cluster.Items,
				Cluster:   cluster,
				IsCluster: true,
			}, nil
		}
		if !errors.Is(err, repository.ErrClusterNotFound) {
			return nil, errors.Wrap(err, "failed to find active cluster")
		}
		// Cluster was deactivated under the member; fall back to personal.
	}

	cart, err := s.cartRepo.FindByPhone(ctx, member.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return &usecase.ActiveCart{}, nil
		}

		return nil, errors.Wrap(err, "failed to find cart")
	}

	return &usecase.ActiveCart{Items: cart.Items}, nil
}

// AddItem merges the product into the active cart, accumulating qty by SKU.
func (s *cartService) AddItem(ctx context.Context, member *entity.Member, product *entity.Product, qty int) (*usecase.ActiveCart, error) {
	if qty < 1 {
		qty = 1
	}

	line := entity.LineItem{
		SKU:           product.SKU,
		Name:          product.Name,
		Qty:           qty,
		UnitPriceKobo: product.PriceKobo,
	}

	active, err := s.GetActiveCart(ctx, member, false)
	if err != nil {
		return nil, err
	}

	active.Items = entity.MergeLine(active.Items, line)
	if err := s.persist(ctx, member, active); err != nil {
		return nil, err
	}

	return active, nil
}

// RemoveItem removes the line matching the query. An exact name match wins,
// a unique substring match removes, and an ambiguous query returns the
// candidates for confirmation instead of guessing.
func (s *cartService) RemoveItem(ctx context.Context, member *entity.Member, query string) (*usecase.RemoveResult, error) {
	active, err := s.GetActiveCart(ctx, member, false)
	if err != nil {
		return nil, err
	}
	if len(active.Items) == 0 {
		return nil, domainerrors.ErrCartEmpty
	}

	needle := strings.ToLower(strings.TrimSpace(query))

	exactIdx := -1
	var substrIdx []int
	for i, item := range active.Items {
		name := strings.ToLower(item.Name)
		if name == needle {
			exactIdx = i

			break
		}
		if strings.Contains(name, needle) {
			substrIdx = append(substrIdx, i)
		}
	}

	idx := exactIdx
	if idx < 0 {
		switch len(substrIdx) {
		case 0:
			return &usecase.RemoveResult{}, nil
		case 1:
			idx = substrIdx[0]
		default:
			candidates := make([]entity.LineItem, 0, len(substrIdx))
			for _, i := range substrIdx {
				candidates = append(candidates, active.Items[i])
			}

			return &usecase.RemoveResult{Candidates: candidates}, nil
		}
	}

	removed := active.Items[idx]
	active.Items = append(active.Items[:idx], active.Items[idx+1:]...)
	if err := s.persist(ctx, member, active); err != nil {
		return nil, err
	}

	return &usecase.RemoveResult{Removed: &removed}, nil
}

// ClearActiveCart empties the cart the member is operating on.
func (s *cartService) ClearActiveCart(ctx context.Context, member *entity.Member) error {
	active, err := s.GetActiveCart(ctx, member, false)
	if err != nil {
		return err
	}

	active.Items = nil

	return s.persist(ctx, member, active)
}

// persist writes the active cart back to its source. Cluster writes go
// through the versioned update and retry once on a lost race.
func (s *cartService) persist(ctx context.Context, member *entity.Member, active *usecase.ActiveCart) error {
	if active.IsCluster {
		err := s.clusterRepo.UpdateItems(ctx, active.Cluster.ID, active.Items, active.Cluster.Version)
		if errors.Is(err, repository.ErrClusterConflict) {
			fresh, findErr := s.clusterRepo.FindByID(ctx, active.Cluster.ID)
			if findErr != nil {
				return errors.Wrap(findErr, "failed to refresh cluster after conflict")
			}
			active.Cluster = fresh

			return errors.Wrap(
				s.clusterRepo.UpdateItems(ctx, fresh.ID, active.Items, fresh.Version),
				"failed to update cluster items after retry",
			)
		}
		if err != nil {
			return errors.Wrap(err, "failed to update cluster items")
		}
		active.Cluster.Version++

		return nil
	}

	if len(active.Items) == 0 {
		if err := s.cartRepo.Clear(ctx, member.Phone); err != nil {
			return errors.Wrap(err, "failed to clear cart")
		}

		return nil
	}

	cart := &entity.Cart{
		Phone:     member.Phone,
		Items:     active.Items,
		UpdatedAt: time.Now(),
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return errors.Wrap(err, "failed to save cart")
	}

	return nil
}
