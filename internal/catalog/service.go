package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	GetItem(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	GetItems(ctx context.Context, ids []uuid.UUID) (Snapshot, error)
	ListItems(ctx context.Context) ([]*InventoryItem, error)
	RestockItem(ctx context.Context, id uuid.UUID, delta float64) (*InventoryItem, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ProductInfo is a product together with its derived cost and
// availability against the snapshot the listing was computed from.
type ProductInfo struct {
	Product   *Product
	Cost      float64
	Available bool
}

// ListProducts returns all products enriched with cost and availability.
// Cost and availability are recomputed against a fresh inventory snapshot
// on every call; they are never cached across inventory mutations.
func (s *Service) ListProducts(ctx context.Context) ([]ProductInfo, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	ids := itemIDs(products)

	snap, err := s.repo.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading inventory snapshot: %w", err)
	}

	infos := make([]ProductInfo, 0, len(products))

	for _, p := range products {
		cost, err := Cost(p, snap)
		if err != nil {
			return nil, err
		}

		infos = append(infos, ProductInfo{
			Product:   p,
			Cost:      cost,
			Available: Available(p, snap),
		})
	}

	return infos, nil
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductInfo, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	snap, err := s.repo.GetItems(ctx, itemIDs([]*Product{p}))
	if err != nil {
		return nil, fmt.Errorf("loading inventory snapshot: %w", err)
	}

	cost, err := Cost(p, snap)
	if err != nil {
		return nil, err
	}

	return &ProductInfo{Product: p, Cost: cost, Available: Available(p, snap)}, nil
}

func (s *Service) ListItems(ctx context.Context) ([]*InventoryItem, error) {
	return s.repo.ListItems(ctx)
}

// Restock adds delta storage units to an item. Restock edits and checkout
// deductions/restorations are the only legal quantity mutations.
func (s *Service) Restock(ctx context.Context, id uuid.UUID, delta float64) (*InventoryItem, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("restock delta must be positive, got %v", delta)
	}

	return s.repo.RestockItem(ctx, id, delta)
}

func itemIDs(products []*Product) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})

	var ids []uuid.UUID

	for _, p := range products {
		for _, line := range p.Lines {
			if _, ok := seen[line.ItemID]; ok {
				continue
			}

			seen[line.ItemID] = struct{}{}
			ids = append(ids, line.ItemID)
		}
	}

	return ids
}
