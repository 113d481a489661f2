package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tillkit/till/internal/catalog"
	"github.com/tillkit/till/internal/metrics"
	"github.com/tillkit/till/internal/unit"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=checkout
type Repository interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
	GetItems(ctx context.Context, ids []uuid.UUID) (catalog.Snapshot, error)

	MaxSequence(ctx context.Context, period Period) (int, error)
	InsertSales(ctx context.Context, sales []*Sale) error

	// AdjustItemQuantity applies a storage-unit delta to an item,
	// clamping the result at zero, and returns the new quantity.
	AdjustItemQuantity(ctx context.Context, itemID uuid.UUID, delta float64) (float64, error)
	MarkSalesCancelled(ctx context.Context, transactionID uuid.UUID, at time.Time) error
}

// Registrar receives the committed result, typically the cancellation
// window, which in turn notifies the UI.
type Registrar interface {
	Register(res *Result)
}

type Params struct {
	Cart             Cart
	PaymentMethod    string
	CustomerCategory string
	SeatingMode      string
}

type Service struct {
	repo      Repository
	numbers   *Numberer
	registrar Registrar
	now       func() time.Time
}

func NewService(repo Repository, registrar Registrar) *Service {
	return &Service{
		repo:      repo,
		numbers:   NewNumberer(repo),
		registrar: registrar,
		now:       time.Now,
	}
}

// Commit runs a cart through the full lifecycle. Validation happens here,
// at commit time, against a snapshot read now - not against whatever the
// UI saw when lines were added; stock and recipes may have changed since.
//
// Persistence order: every sale row for the transaction is written first,
// then one aggregated deduction per touched item. A deduction failure
// after the sale rows landed is not rolled back; it is reported in
// Result.FailedItems with State PartiallyFailed.
func (s *Service) Commit(ctx context.Context, params Params) (*Result, error) {
	var reasons []string

	if params.Cart.Empty() {
		reasons = append(reasons, "cart is empty")
	}

	if params.PaymentMethod == "" {
		reasons = append(reasons, "no payment method selected")
	}

	if params.CustomerCategory == "" {
		reasons = append(reasons, "no customer category selected")
	}

	if params.SeatingMode == "" {
		reasons = append(reasons, "no seating mode selected")
	}

	lines := params.Cart.Lines()

	if len(lines) == 0 {
		metrics.CheckoutsRejected.Inc()
		return nil, &ValidationError{Reasons: reasons}
	}

	products, snap, err := s.loadSnapshot(ctx, lines)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("unknown product %s", line.ProductID))
			continue
		}

		if !catalog.Available(p, snap) {
			reasons = append(reasons, fmt.Sprintf("product %q is unavailable", p.Name))
		}
	}

	if len(reasons) > 0 {
		metrics.CheckoutsRejected.Inc()
		return nil, &ValidationError{Reasons: reasons}
	}

	now := s.now()

	number, err := s.numbers.Next(ctx, PeriodOf(now))
	if err != nil {
		return nil, fmt.Errorf("%w: issuing transaction number: %v", ErrPersistence, err)
	}

	txID := uuid.New()

	sales := make([]*Sale, 0, len(lines))

	for _, line := range lines {
		p := products[line.ProductID]

		cost, err := catalog.Cost(p, snap)
		if err != nil {
			return nil, fmt.Errorf("deriving cost for %q: %w", p.Name, err)
		}

		sales = append(sales, &Sale{
			ID:               uuid.New(),
			TransactionID:    txID,
			Number:           number,
			ProductID:        p.ID,
			ProductName:      p.Name,
			Quantity:         line.Quantity,
			UnitCost:         cost,
			Price:            p.Price,
			Total:            unit.Round2(p.Price * float64(line.Quantity)),
			PaymentMethod:    params.PaymentMethod,
			CustomerCategory: params.CustomerCategory,
			SeatingMode:      params.SeatingMode,
			CreatedAt:        now,
		})
	}

	deductions := aggregateDeductions(lines, products, snap)

	if err := s.repo.InsertSales(ctx, sales); err != nil {
		return nil, fmt.Errorf("%w: writing sale rows: %v", ErrPersistence, err)
	}

	res := &Result{
		State:         StateCommitted,
		TransactionID: txID,
		Number:        number,
		Sales:         sales,
		Deductions:    deductions,
		CommittedAt:   now,
	}

	for _, d := range deductions {
		if _, err := s.repo.AdjustItemQuantity(ctx, d.ItemID, -d.Storage); err != nil {
			res.FailedItems = append(res.FailedItems, ItemFailure{ItemID: d.ItemID, Err: err})
		}
	}

	if len(res.FailedItems) > 0 {
		res.State = StatePartiallyFailed
		metrics.PartialCommits.Inc()
	} else {
		metrics.CheckoutsCommitted.Inc()
	}

	if s.registrar != nil {
		s.registrar.Register(res)
	}

	return res, nil
}

func (s *Service) loadSnapshot(ctx context.Context, lines []CartLine) (map[uuid.UUID]*catalog.Product, catalog.Snapshot, error) {
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}

	products, err := s.repo.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: loading products: %v", ErrPersistence, err)
	}

	seen := make(map[uuid.UUID]struct{})

	var itemIDs []uuid.UUID

	for _, p := range products {
		for _, line := range p.Lines {
			if _, ok := seen[line.ItemID]; ok {
				continue
			}

			seen[line.ItemID] = struct{}{}
			itemIDs = append(itemIDs, line.ItemID)
		}
	}

	snap, err := s.repo.GetItems(ctx, itemIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: loading inventory snapshot: %v", ErrPersistence, err)
	}

	return products, snap, nil
}

// aggregateDeductions sums the display-unit requirement per inventory
// item across every cart line before converting to storage units. One
// raw material shared by several products in a cart is deducted once,
// with one conversion - never as independently rounded partial amounts.
func aggregateDeductions(lines []CartLine, products map[uuid.UUID]*catalog.Product, snap catalog.Snapshot) []Deduction {
	displayByItem := make(map[uuid.UUID]float64)

	var order []uuid.UUID

	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			continue
		}

		for _, rl := range p.Lines {
			if _, ok := displayByItem[rl.ItemID]; !ok {
				order = append(order, rl.ItemID)
			}

			displayByItem[rl.ItemID] += rl.Quantity * float64(line.Quantity)
		}
	}

	deductions := make([]Deduction, 0, len(order))

	for _, itemID := range order {
		item, ok := snap[itemID]
		if !ok {
			continue
		}

		display := displayByItem[itemID]
		deductions = append(deductions, Deduction{
			ItemID:  itemID,
			Display: display,
			Storage: unit.ToStorage(display, item.Kind),
		})
	}

	return deductions
}
