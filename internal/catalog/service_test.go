package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tillkit/till/internal/catalog"
	"github.com/tillkit/till/internal/unit"
)

func TestListProducts_EnrichesWithCostAndAvailability(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	flourID := uuid.New()

	products := []*catalog.Product{
		{
			ID:    uuid.New(),
			Name:  "Bread",
			Price: 3,
			Lines: []catalog.RecipeLine{{ItemID: flourID, Quantity: 500}},
		},
		{
			ID:   uuid.New(),
			Name: "Mystery", // no recipe, never available
		},
	}

	snap := catalog.Snapshot{
		flourID: {ID: flourID, Name: "Flour", Kind: unit.KindWeight, Quantity: 0.4, CostPerUnit: 50},
	}

	repo.EXPECT().ListProducts(gomock.Any()).Return(products, nil)
	repo.EXPECT().GetItems(gomock.Any(), []uuid.UUID{flourID}).Return(snap, nil)

	svc := catalog.NewService(repo)

	infos, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.InDelta(t, 25.0, infos[0].Cost, 1e-9) // 500 g of 50/kg flour
	assert.False(t, infos[0].Available)          // only 400 g in stock

	assert.Zero(t, infos[1].Cost)
	assert.False(t, infos[1].Available)
}

func TestListProducts_SnapshotIsFreshPerCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	sugarID := uuid.New()

	products := []*catalog.Product{{
		ID:    uuid.New(),
		Name:  "Lemonade",
		Lines: []catalog.RecipeLine{{ItemID: sugarID, Quantity: 100}},
	}}

	low := catalog.Snapshot{
		sugarID: {ID: sugarID, Kind: unit.KindWeight, Quantity: 0.05, CostPerUnit: 10},
	}
	restocked := catalog.Snapshot{
		sugarID: {ID: sugarID, Kind: unit.KindWeight, Quantity: 2, CostPerUnit: 10},
	}

	gomock.InOrder(
		repo.EXPECT().ListProducts(gomock.Any()).Return(products, nil),
		repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return(low, nil),
		repo.EXPECT().ListProducts(gomock.Any()).Return(products, nil),
		repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return(restocked, nil),
	)

	svc := catalog.NewService(repo)

	infos, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.False(t, infos[0].Available)

	infos, err = svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.True(t, infos[0].Available)
}

func TestGetProduct_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	repo.EXPECT().GetProduct(gomock.Any(), gomock.Any()).Return(nil, catalog.ErrNotFound)

	svc := catalog.NewService(repo)

	_, err := svc.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRestock_RejectsNonPositiveDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	svc := catalog.NewService(repo)

	_, err := svc.Restock(context.Background(), uuid.New(), 0)
	assert.Error(t, err)

	_, err = svc.Restock(context.Background(), uuid.New(), -1)
	assert.Error(t, err)
}

func TestRestock_DelegatesPositiveDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	id := uuid.New()
	updated := &catalog.InventoryItem{ID: id, Quantity: 7.5}

	repo.EXPECT().RestockItem(gomock.Any(), id, 2.5).Return(updated, nil)

	svc := catalog.NewService(repo)

	item, err := svc.Restock(context.Background(), id, 2.5)
	require.NoError(t, err)
	assert.Same(t, updated, item)
}

func TestListProducts_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	repoErr := errors.New("connection refused")
	repo.EXPECT().ListProducts(gomock.Any()).Return(nil, repoErr)

	svc := catalog.NewService(repo)

	_, err := svc.ListProducts(context.Background())
	assert.ErrorIs(t, err, repoErr)
}
