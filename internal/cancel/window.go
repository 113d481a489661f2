// Package cancel keeps the most recent committed transaction voidable
// for a short grace period after checkout.
package cancel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tillkit/till/internal/checkout"
	"github.com/tillkit/till/internal/metrics"
	"github.com/tillkit/till/internal/notify"
)

var (
	// ErrNotFound means no cancellable transaction matches the given id.
	// Either nothing is pending or a newer checkout superseded it.
	ErrNotFound = errors.New("cancel: no pending transaction")

	// ErrExpired means the transaction existed but its grace period
	// elapsed before the cancel arrived.
	ErrExpired = errors.New("cancel: window expired")
)

// Repository is the slice of the checkout store a cancellation needs:
// voiding the sale rows and adding the deducted stock back.
type Repository interface {
	MarkSalesCancelled(ctx context.Context, transactionID uuid.UUID, at time.Time) error
	AdjustItemQuantity(ctx context.Context, itemID uuid.UUID, delta float64) (float64, error)
}

type pending struct {
	res       *checkout.Result
	expiresAt time.Time
	timer     Timer
	gen       uint64
}

// Window holds at most one cancellable transaction. Registering a new
// result supersedes the previous one immediately, even if its own
// window had time left. A generation counter ties each scheduled expiry
// to the registration that armed it, so a stale timer firing after
// supersession or cancellation is a no-op.
type Window struct {
	repo  Repository
	sink  notify.Sink
	clock Clock
	ttl   time.Duration

	mu      sync.Mutex
	slot    *pending
	lastGen uint64

	// lastExpired distinguishes "window ran out" from "never registered"
	// when a cancel arrives after the timer already dropped the slot.
	lastExpired uuid.UUID
}

func NewWindow(repo Repository, sink notify.Sink, ttl time.Duration) *Window {
	return newWindow(repo, sink, ttl, realClock{})
}

func newWindow(repo Repository, sink notify.Sink, ttl time.Duration, clock Clock) *Window {
	return &Window{
		repo:  repo,
		sink:  sink,
		clock: clock,
		ttl:   ttl,
	}
}

// Register arms the window for a freshly committed result and emits the
// committed event. It satisfies checkout.Registrar.
func (w *Window) Register(res *checkout.Result) {
	w.mu.Lock()

	if w.slot != nil {
		w.slot.timer.Stop()
	}

	w.lastGen++
	gen := w.lastGen
	expiresAt := w.clock.Now().Add(w.ttl)

	w.slot = &pending{
		res:       res,
		expiresAt: expiresAt,
		timer:     w.clock.AfterFunc(w.ttl, func() { w.expire(gen) }),
		gen:       gen,
	}

	w.mu.Unlock()

	if w.sink != nil {
		w.sink.SaleCommitted(notify.SaleCommitted{
			TransactionID:  res.TransactionID,
			Number:         res.Number,
			ProductSummary: summarize(res.Sales),
			Quantity:       totalUnits(res.Sales),
			Total:          grandTotal(res.Sales),
			ExpiresAt:      expiresAt,
		})
	}
}

// Cancel voids the pending transaction if it matches transactionID and
// the grace period has not elapsed. Every sale row of the transaction is
// marked cancelled and every aggregated deduction is added back in full.
func (w *Window) Cancel(ctx context.Context, transactionID uuid.UUID) error {
	w.mu.Lock()

	slot := w.slot
	if slot == nil || slot.res.TransactionID != transactionID {
		expired := transactionID == w.lastExpired && transactionID != uuid.Nil
		w.mu.Unlock()

		if expired {
			return ErrExpired
		}

		return ErrNotFound
	}

	if !w.clock.Now().Before(slot.expiresAt) {
		w.mu.Unlock()
		return ErrExpired
	}

	now := w.clock.Now()

	if err := w.repo.MarkSalesCancelled(ctx, transactionID, now); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("%w: voiding sale rows: %v", checkout.ErrPersistence, err)
	}

	for _, d := range slot.res.Deductions {
		if _, err := w.repo.AdjustItemQuantity(ctx, d.ItemID, d.Storage); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("%w: restoring stock for item %s: %v", checkout.ErrPersistence, d.ItemID, err)
		}
	}

	slot.timer.Stop()
	w.slot = nil

	w.mu.Unlock()

	metrics.Cancellations.Inc()

	if w.sink != nil {
		w.sink.SaleCancelled(notify.SaleCancelled{
			TransactionID: transactionID,
			CancelledAt:   now,
		})
	}

	return nil
}

// Pending reports the currently cancellable transaction, if any.
func (w *Window) Pending() (uuid.UUID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.slot == nil {
		return uuid.Nil, false
	}

	return w.slot.res.TransactionID, true
}

// expire drops the slot when the timer for generation gen fires. The
// committed data stays exactly as written; expiry only removes the
// ability to cancel.
func (w *Window) expire(gen uint64) {
	w.mu.Lock()

	if w.slot == nil || w.slot.gen != gen {
		w.mu.Unlock()
		return
	}

	w.lastExpired = w.slot.res.TransactionID
	w.slot = nil
	w.mu.Unlock()

	metrics.CancellationsExpired.Inc()
}

func summarize(sales []*checkout.Sale) string {
	parts := make([]string, 0, len(sales))
	for _, s := range sales {
		parts = append(parts, fmt.Sprintf("%dx %s", s.Quantity, s.ProductName))
	}

	return strings.Join(parts, ", ")
}

func totalUnits(sales []*checkout.Sale) int {
	var n int
	for _, s := range sales {
		n += s.Quantity
	}

	return n
}

func grandTotal(sales []*checkout.Sale) float64 {
	var t float64
	for _, s := range sales {
		t += s.Total
	}

	return t
}
