package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tillkit/till/internal/catalog"
	"github.com/tillkit/till/internal/unit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem reads an inventory item row.
// Expected column order: id, name, kind, quantity, cost_per_unit, image_id, created_at, updated_at
func scanItem(s scanner) (*catalog.InventoryItem, error) {
	var item catalog.InventoryItem

	var kindStr string

	var imageID sql.NullString

	if err := s.Scan(
		&item.ID, &item.Name, &kindStr, &item.Quantity, &item.CostPerUnit,
		&imageID, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	item.Kind = unit.Kind(kindStr)
	item.ImageID = imageID.String

	return &item, nil
}

const selectItemColumns = `
	id, name, kind, quantity, cost_per_unit, image_id, created_at, updated_at
`

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*catalog.InventoryItem, error) {
	query := `SELECT ` + selectItemColumns + `
		FROM inventory_items
		WHERE id = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting item: %w", err)
	}

	return item, nil
}

func (s *Store) GetItems(ctx context.Context, ids []uuid.UUID) (catalog.Snapshot, error) {
	snap := make(catalog.Snapshot, len(ids))
	if len(ids) == 0 {
		return snap, nil
	}

	query := `SELECT ` + selectItemColumns + `
		FROM inventory_items
		WHERE id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		snap[item.ID] = item
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}

	return snap, nil
}

func (s *Store) ListItems(ctx context.Context) ([]*catalog.InventoryItem, error) {
	query := `SELECT ` + selectItemColumns + `
		FROM inventory_items
		ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.InventoryItem

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// RestockItem adds delta storage units and returns the updated row.
func (s *Store) RestockItem(ctx context.Context, id uuid.UUID, delta float64) (*catalog.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + selectItemColumns

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id, delta))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("restocking item: %w", err)
	}

	return item, nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `
		SELECT id, name, price, image_id, created_at, updated_at
		FROM products
		WHERE id = $1`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	if err := s.attachLines(ctx, map[uuid.UUID]*catalog.Product{p.ID: p}); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	query := `
		SELECT id, name, price, image_id, created_at, updated_at
		FROM products
		ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product

	byID := make(map[uuid.UUID]*catalog.Product)

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}

		products = append(products, p)
		byID[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	if err := s.attachLines(ctx, byID); err != nil {
		return nil, err
	}

	return products, nil
}

func scanProduct(s scanner) (*catalog.Product, error) {
	var p catalog.Product

	var imageID sql.NullString

	if err := s.Scan(&p.ID, &p.Name, &p.Price, &imageID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.ImageID = imageID.String

	return &p, nil
}

// attachLines loads the recipe lines for every product in byID in one
// query, preserving per-product line order.
func (s *Store) attachLines(ctx context.Context, byID map[uuid.UUID]*catalog.Product) error {
	if len(byID) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	query := `
		SELECT product_id, item_id, quantity
		FROM recipe_lines
		WHERE product_id = ANY($1)
		ORDER BY product_id, position ASC`

	rows, err := s.db.QueryContext(ctx, query, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("loading recipe lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID uuid.UUID

		var line catalog.RecipeLine

		if err := rows.Scan(&productID, &line.ItemID, &line.Quantity); err != nil {
			return fmt.Errorf("scanning recipe line: %w", err)
		}

		if p, ok := byID[productID]; ok {
			p.Lines = append(p.Lines, line)
		}
	}

	return rows.Err()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}
