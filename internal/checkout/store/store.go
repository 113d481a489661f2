// Package store persists checkout transactions against PostgreSQL. It
// satisfies both checkout.Repository and cancel.Repository.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tillkit/till/internal/catalog"
	catalogstore "github.com/tillkit/till/internal/catalog/store"
	"github.com/tillkit/till/internal/checkout"
)

type Store struct {
	db      *sql.DB
	catalog *catalogstore.Store
}

func New(db *sql.DB) *Store {
	return &Store{db: db, catalog: catalogstore.New(db)}
}

// GetProducts loads the requested products with their recipe lines,
// keyed by id. Unknown ids are simply absent from the result.
func (s *Store) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	byID := make(map[uuid.UUID]*catalog.Product, len(ids))

	for _, id := range ids {
		if _, ok := byID[id]; ok {
			continue
		}

		p, err := s.catalog.GetProduct(ctx, id)
		if err != nil {
			if err == catalog.ErrNotFound {
				continue
			}

			return nil, err
		}

		byID[id] = p
	}

	return byID, nil
}

func (s *Store) GetItems(ctx context.Context, ids []uuid.UUID) (catalog.Snapshot, error) {
	return s.catalog.GetItems(ctx, ids)
}

// MaxSequence reads the highest sequence number already issued for a
// period. Numbers look like "24-05-0042"; the suffix after the second
// dash is the sequence.
func (s *Store) MaxSequence(ctx context.Context, period checkout.Period) (int, error) {
	query := `
		SELECT COALESCE(MAX(CAST(SPLIT_PART(number, '-', 3) AS INTEGER)), 0)
		FROM sales
		WHERE number LIKE $1 || '-%'`

	var max int
	if err := s.db.QueryRowContext(ctx, query, string(period)).Scan(&max); err != nil {
		return 0, fmt.Errorf("reading max sequence: %w", err)
	}

	return max, nil
}

// InsertSales writes every sale row of a transaction inside one database
// transaction, so a partially written checkout never becomes visible.
func (s *Store) InsertSales(ctx context.Context, sales []*checkout.Sale) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sales tx: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO sales (
			id, transaction_id, number, product_id, product_name, quantity,
			unit_cost, price, total, payment_method, customer_category,
			seating_mode, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, sale := range sales {
		_, err := dbTx.ExecContext(ctx, query,
			sale.ID,
			sale.TransactionID,
			sale.Number,
			sale.ProductID,
			sale.ProductName,
			sale.Quantity,
			sale.UnitCost,
			sale.Price,
			sale.Total,
			sale.PaymentMethod,
			sale.CustomerCategory,
			sale.SeatingMode,
			sale.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting sale row: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing sale rows: %w", err)
	}

	return nil
}

// AdjustItemQuantity applies a storage-unit delta to an item. Negative
// deltas clamp at zero rather than driving stock negative.
func (s *Store) AdjustItemQuantity(ctx context.Context, itemID uuid.UUID, delta float64) (float64, error) {
	query := `
		UPDATE inventory_items
		SET quantity = GREATEST(quantity + $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING quantity`

	var quantity float64

	err := s.db.QueryRowContext(ctx, query, itemID, delta).Scan(&quantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, catalog.ErrNotFound
		}

		return 0, fmt.Errorf("adjusting item quantity: %w", err)
	}

	return quantity, nil
}

func (s *Store) MarkSalesCancelled(ctx context.Context, transactionID uuid.UUID, at time.Time) error {
	query := `
		UPDATE sales
		SET cancelled_at = $2
		WHERE transaction_id = $1 AND cancelled_at IS NULL`

	res, err := s.db.ExecContext(ctx, query, transactionID, at)
	if err != nil {
		return fmt.Errorf("marking sales cancelled: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, catalog.ErrNotFound)
	}

	return nil
}
