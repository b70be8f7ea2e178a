package impl

import (
	"context"
	"testing"

	"clustercart/internal/domain/entity"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/repository"
	mockRepo "clustercart/internal/mocks/repository"
	"clustercart/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartServiceForTest(t *testing.T) (usecase.CartUsecase, *mockRepo.MockCartRepository, *mockRepo.MockClusterRepository) {
	mockCartRepo := mockRepo.NewMockCartRepository(t)
	mockClusterRepo := mockRepo.NewMockClusterRepository(t)

	svc := NewCartService(CartServiceParams{
		CartRepo:    mockCartRepo,
		ClusterRepo: mockClusterRepo,
	})

	return svc, mockCartRepo, mockClusterRepo
}

func TestCartService_GetActiveCart_EmptyWhenNoCart(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(nil, repository.ErrCartNotFound)

	active, err := svc.GetActiveCart(ctx, member, false)
	require.NoError(t, err)
	assert.Empty(t, active.Items)
	assert.False(t, active.IsCluster)
}

func TestCartService_GetActiveCart_PrefersActiveCluster(t *testing.T) {
	svc, _, mockClusterRepo := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", CurrentClusterID: "cl1"}
	cluster := &entity.Cluster{
		ID:    "cl1",
		Name:  "Ajah Foodies",
		Items: []entity.LineItem{{SKU: "RICE5", Name: "Rice 5kg", Qty: 1, UnitPriceKobo: 150000}},
	}

	mockClusterRepo.On("FindByID", ctx, "cl1").Return(cluster, nil)

	active, err := svc.GetActiveCart(ctx, member, false)
	require.NoError(t, err)
	assert.True(t, active.IsCluster)
	assert.Equal(t, cluster, active.Cluster)
	assert.Len(t, active.Items, 1)
}

func TestCartService_GetActiveCart_DeactivatedClusterFallsBackToPersonal(t *testing.T) {
	svc, mockCartRepo, mockClusterRepo := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", CurrentClusterID: "cl1"}

	mockClusterRepo.On("FindByID", ctx, "cl1").
		Return(nil, repository.ErrClusterNotFound)
	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(&entity.Cart{
			Phone: "+2348012345678",
			Items: []entity.LineItem{{SKU: "OIL25", Name: "Vegetable Oil 25L", Qty: 1, UnitPriceKobo: 4500000}},
		}, nil)

	active, err := svc.GetActiveCart(ctx, member, false)
	require.NoError(t, err)
	assert.False(t, active.IsCluster)
	assert.Len(t, active.Items, 1)
}

func TestCartService_GetActiveCart_ForcePersonalBypassesCluster(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", CurrentClusterID: "cl1"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(nil, repository.ErrCartNotFound)

	active, err := svc.GetActiveCart(ctx, member, true)
	require.NoError(t, err)
	assert.False(t, active.IsCluster)
}

func TestCartService_AddItem_AccumulatesQtyBySKU(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}
	product := &entity.Product{SKU: "RICE5", Name: "Rice 5kg", PriceKobo: 150000}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(&entity.Cart{
			Phone: "+2348012345678",
			Items: []entity.LineItem{{SKU: "RICE5", Name: "Rice 5kg", Qty: 2, UnitPriceKobo: 150000}},
		}, nil)
	mockCartRepo.On("Save", ctx, mock.MatchedBy(func(cart *entity.Cart) bool {
		return len(cart.Items) == 1 && cart.Items[0].SKU == "RICE5" && cart.Items[0].Qty == 5
	})).Return(nil)

	active, err := svc.AddItem(ctx, member, product, 3)
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, 5, active.Items[0].Qty)
}

func TestCartService_AddItem_DefaultsQtyToOne(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}
	product := &entity.Product{SKU: "RICE5", Name: "Rice 5kg", PriceKobo: 150000}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(nil, repository.ErrCartNotFound)
	mockCartRepo.On("Save", ctx, mock.MatchedBy(func(cart *entity.Cart) bool {
		return len(cart.Items) == 1 && cart.Items[0].Qty == 1
	})).Return(nil)

	active, err := svc.AddItem(ctx, member, product, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, active.Items[0].Qty)
}

func TestCartService_AddItem_RetriesClusterWriteOnConflict(t *testing.T) {
	svc, _, mockClusterRepo := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", CurrentClusterID: "cl1"}
	product := &entity.Product{SKU: "RICE5", Name: "Rice 5kg", PriceKobo: 150000}

	stale := &entity.Cluster{ID: "cl1", Name: "Ajah Foodies", Version: 3}
	fresh := &entity.Cluster{ID: "cl1", Name: "Ajah Foodies", Version: 4}

	mockClusterRepo.On("FindByID", ctx, "cl1").Return(stale, nil).Once()
	mockClusterRepo.On("UpdateItems", ctx, "cl1", mock.Anything, int64(3)).
		Return(repository.ErrClusterConflict)
	mockClusterRepo.On("FindByID", ctx, "cl1").Return(fresh, nil).Once()
	mockClusterRepo.On("UpdateItems", ctx, "cl1", mock.Anything, int64(4)).
		Return(nil)

	active, err := svc.AddItem(ctx, member, product, 1)
	require.NoError(t, err)
	assert.True(t, active.IsCluster)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "RICE5", active.Items[0].SKU)
}

func TestCartService_RemoveItem_ExactNameWins(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(&entity.Cart{
			Phone: "+2348012345678",
			Items: []entity.LineItem{
				{SKU: "RICE5", Name: "Rice 5kg", Qty: 1, UnitPriceKobo: 150000},
				{SKU: "RICE10", Name: "Rice 10kg", Qty: 1, UnitPriceKobo: 280000},
			},
		}, nil)
	mockCartRepo.On("Save", ctx, mock.MatchedBy(func(cart *entity.Cart) bool {
		return len(cart.Items) == 1 && cart.Items[0].SKU == "RICE10"
	})).Return(nil)

	result, err := svc.RemoveItem(ctx, member, "rice 5kg")
	require.NoError(t, err)
	require.NotNil(t, result.Removed)
	assert.Equal(t, "RICE5", result.Removed.SKU)
	assert.Empty(t, result.Candidates)
}

func TestCartService_RemoveItem_AmbiguousQuerySurfacesCandidates(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(&entity.Cart{
			Phone: "+2348012345678",
			Items: []entity.LineItem{
				{SKU: "RICE5", Name: "Rice 5kg", Qty: 1, UnitPriceKobo: 150000},
				{SKU: "RICE10", Name: "Rice 10kg", Qty: 1, UnitPriceKobo: 280000},
			},
		}, nil)

	// No persist happens until the member picks one.
	result, err := svc.RemoveItem(ctx, member, "rice")
	require.NoError(t, err)
	assert.Nil(t, result.Removed)
	assert.Len(t, result.Candidates, 2)
}

func TestCartService_RemoveItem_NoMatchIsEmptyResult(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(&entity.Cart{
			Phone: "+2348012345678",
			Items: []entity.LineItem{{SKU: "RICE5", Name: "Rice 5kg", Qty: 1, UnitPriceKobo: 150000}},
		}, nil)

	result, err := svc.RemoveItem(ctx, member, "garri")
	require.NoError(t, err)
	assert.Nil(t, result.Removed)
	assert.Empty(t, result.Candidates)
}

func TestCartService_RemoveItem_EmptyCart(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(nil, repository.ErrCartNotFound)

	result, err := svc.RemoveItem(ctx, member, "rice")
	assert.ErrorIs(t, err, domainerrors.ErrCartEmpty)
	assert.Nil(t, result)
}

func TestCartService_RemoveItem_LastLineClearsCart(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(&entity.Cart{
			Phone: "+2348012345678",
			Items: []entity.LineItem{{SKU: "RICE5", Name: "Rice 5kg", Qty: 1, UnitPriceKobo: 150000}},
		}, nil)
	mockCartRepo.On("Clear", ctx, "+2348012345678").Return(nil)

	result, err := svc.RemoveItem(ctx, member, "rice 5kg")
	require.NoError(t, err)
	require.NotNil(t, result.Removed)
}

func TestCartService_ClearActiveCart(t *testing.T) {
	svc, mockCartRepo, _ := newCartServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678"}

	mockCartRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(&entity.Cart{
			Phone: "+2348012345678",
			Items: []entity.LineItem{{SKU: "RICE5", Name: "Rice 5kg", Qty: 2, UnitPriceKobo: 150000}},
		}, nil)
	mockCartRepo.On("Clear", ctx, "+2348012345678").Return(nil)

	require.NoError(t, svc.ClearActiveCart(ctx, member))
}
