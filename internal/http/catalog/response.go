package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/tillkit/till/internal/catalog"
	"github.com/tillkit/till/internal/unit"
)

type recipeLineResponse struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity float64   `json:"quantity"`
}

type productResponse struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	Price     float64              `json:"price"`
	Cost      float64              `json:"cost"`
	Available bool                 `json:"available"`
	ImageID   string               `json:"image_id,omitempty"`
	Lines     []recipeLineResponse `json:"lines"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt *time.Time           `json:"updated_at,omitempty"`
}

func toProductResponse(info catalog.ProductInfo) productResponse {
	p := info.Product

	resp := productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Cost:      info.Cost,
		Available: info.Available,
		ImageID:   p.ImageID,
		Lines:     make([]recipeLineResponse, len(p.Lines)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	for i, line := range p.Lines {
		resp.Lines[i] = recipeLineResponse{ItemID: line.ItemID, Quantity: line.Quantity}
	}

	return resp
}

func toProductList(infos []catalog.ProductInfo) []productResponse {
	resp := make([]productResponse, len(infos))
	for i, info := range infos {
		resp[i] = toProductResponse(info)
	}

	return resp
}

type itemResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Kind        unit.Kind  `json:"kind"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	CostPerUnit float64    `json:"cost_per_unit"`
	ImageID     string     `json:"image_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func toItemResponse(item *catalog.InventoryItem) itemResponse {
	return itemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Kind:        item.Kind,
		Quantity:    item.Quantity,
		Unit:        item.Kind.StorageUnit(),
		CostPerUnit: item.CostPerUnit,
		ImageID:     item.ImageID,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toItemList(items []*catalog.InventoryItem) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item)
	}

	return resp
}
