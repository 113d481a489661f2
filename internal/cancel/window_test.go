package cancel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillkit/till/internal/checkout"
	"github.com/tillkit/till/internal/notify"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true

	return !was
}

// fakeClock advances only when told to and fires due timers synchronously.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*struct {
		at time.Time
		t  *fakeTimer
	}
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{f: f}
	c.timers = append(c.timers, &struct {
		at time.Time
		t  *fakeTimer
	}{at: c.now.Add(d), t: t})

	return t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)

	var due []*fakeTimer

	for _, entry := range c.timers {
		if !entry.t.stopped && !c.now.Before(entry.at) {
			entry.t.stopped = true
			due = append(due, entry.t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type fakeRepo struct {
	mu          sync.Mutex
	cancelled   []uuid.UUID
	adjustments map[uuid.UUID]float64
	markErr     error
	adjustErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{adjustments: make(map[uuid.UUID]float64)}
}

func (r *fakeRepo) MarkSalesCancelled(_ context.Context, transactionID uuid.UUID, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.markErr != nil {
		return r.markErr
	}

	r.cancelled = append(r.cancelled, transactionID)

	return nil
}

func (r *fakeRepo) AdjustItemQuantity(_ context.Context, itemID uuid.UUID, delta float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.adjustErr != nil {
		return 0, r.adjustErr
	}

	r.adjustments[itemID] += delta

	return r.adjustments[itemID], nil
}

type fakeSink struct {
	mu        sync.Mutex
	committed []notify.SaleCommitted
	cancelled []notify.SaleCancelled
}

func (s *fakeSink) SaleCommitted(ev notify.SaleCommitted) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.committed = append(s.committed, ev)
}

func (s *fakeSink) SaleCancelled(ev notify.SaleCancelled) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = append(s.cancelled, ev)
}

func (s *fakeSink) StorageCapacityWarning(notify.StorageCapacityWarning) {}

func committedResult(items ...checkout.Deduction) *checkout.Result {
	return &checkout.Result{
		State:         checkout.StateCommitted,
		TransactionID: uuid.New(),
		Number:        "24-05-0007",
		Sales: []*checkout.Sale{
			{ProductName: "Latte", Quantity: 2, Total: 9},
		},
		Deductions: items,
	}
}

func TestWindow_RegisterEmitsCommittedEventWithDeadline(t *testing.T) {
	clock := newFakeClock()
	sink := &fakeSink{}
	w := newWindow(newFakeRepo(), sink, 30*time.Second, clock)

	res := committedResult()
	w.Register(res)

	require.Len(t, sink.committed, 1)
	ev := sink.committed[0]
	assert.Equal(t, res.TransactionID, ev.TransactionID)
	assert.Equal(t, "24-05-0007", ev.Number)
	assert.Equal(t, "2x Latte", ev.ProductSummary)
	assert.Equal(t, 2, ev.Quantity)
	assert.Equal(t, 9.0, ev.Total)
	assert.Equal(t, clock.Now().Add(30*time.Second), ev.ExpiresAt)

	id, ok := w.Pending()
	assert.True(t, ok)
	assert.Equal(t, res.TransactionID, id)
}

func TestWindow_CancelRestoresExactDeductedQuantities(t *testing.T) {
	clock := newFakeClock()
	repo := newFakeRepo()
	sink := &fakeSink{}
	w := newWindow(repo, sink, 30*time.Second, clock)

	milkID := uuid.New()
	beansID := uuid.New()

	res := committedResult(
		checkout.Deduction{ItemID: milkID, Display: 550, Storage: 0.55},
		checkout.Deduction{ItemID: beansID, Display: 54, Storage: 0.054},
	)
	w.Register(res)

	clock.advance(10 * time.Second)

	err := w.Cancel(context.Background(), res.TransactionID)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{res.TransactionID}, repo.cancelled)
	assert.Equal(t, 0.55, repo.adjustments[milkID])
	assert.Equal(t, 0.054, repo.adjustments[beansID])

	require.Len(t, sink.cancelled, 1)
	assert.Equal(t, res.TransactionID, sink.cancelled[0].TransactionID)
	assert.Equal(t, clock.Now(), sink.cancelled[0].CancelledAt)

	_, ok := w.Pending()
	assert.False(t, ok)
}

func TestWindow_CancelAfterDeadlineIsExpired(t *testing.T) {
	clock := newFakeClock()
	repo := newFakeRepo()
	w := newWindow(repo, &fakeSink{}, 30*time.Second, clock)

	res := committedResult(checkout.Deduction{ItemID: uuid.New(), Storage: 1})
	w.Register(res)

	clock.advance(30 * time.Second)

	err := w.Cancel(context.Background(), res.TransactionID)
	assert.ErrorIs(t, err, ErrExpired)

	// Expiry must not touch the store.
	assert.Empty(t, repo.cancelled)
	assert.Empty(t, repo.adjustments)
}

func TestWindow_CancelAtDeadlineBeforeTimerFires(t *testing.T) {
	clock := newFakeClock()
	repo := newFakeRepo()
	w := newWindow(repo, &fakeSink{}, 30*time.Second, clock)

	res := committedResult(checkout.Deduction{ItemID: uuid.New(), Storage: 1})
	w.Register(res)

	// Move wall time past the deadline without running the expiry timer,
	// the state a cancel racing the timer goroutine observes.
	clock.mu.Lock()
	clock.now = clock.now.Add(31 * time.Second)
	clock.mu.Unlock()

	err := w.Cancel(context.Background(), res.TransactionID)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Empty(t, repo.cancelled)
}

func TestWindow_CancelUnknownTransaction(t *testing.T) {
	clock := newFakeClock()
	w := newWindow(newFakeRepo(), &fakeSink{}, 30*time.Second, clock)

	w.Register(committedResult())

	err := w.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWindow_CancelWithNothingPending(t *testing.T) {
	w := newWindow(newFakeRepo(), &fakeSink{}, 30*time.Second, newFakeClock())

	err := w.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWindow_NewRegistrationSupersedesPrevious(t *testing.T) {
	clock := newFakeClock()
	repo := newFakeRepo()
	w := newWindow(repo, &fakeSink{}, 30*time.Second, clock)

	first := committedResult(checkout.Deduction{ItemID: uuid.New(), Storage: 0.2})
	second := committedResult(checkout.Deduction{ItemID: uuid.New(), Storage: 0.3})

	w.Register(first)
	clock.advance(5 * time.Second)
	w.Register(second)

	// The first transaction is final the moment the second commits.
	err := w.Cancel(context.Background(), first.TransactionID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The second is still live, on its own full window.
	clock.advance(29 * time.Second)
	require.NoError(t, w.Cancel(context.Background(), second.TransactionID))
}

func TestWindow_StaleTimerDoesNotDropSuccessor(t *testing.T) {
	clock := newFakeClock()
	w := newWindow(newFakeRepo(), &fakeSink{}, 30*time.Second, clock)

	first := committedResult()
	w.Register(first)

	clock.advance(20 * time.Second)

	second := committedResult()
	w.Register(second)

	// Past the first window's deadline but well inside the second's.
	clock.advance(15 * time.Second)

	id, ok := w.Pending()
	require.True(t, ok)
	assert.Equal(t, second.TransactionID, id)
}

func TestWindow_MarkFailureKeepsSlotAndStock(t *testing.T) {
	clock := newFakeClock()
	repo := newFakeRepo()
	repo.markErr = errors.New("connection reset")
	w := newWindow(repo, &fakeSink{}, 30*time.Second, clock)

	res := committedResult(checkout.Deduction{ItemID: uuid.New(), Storage: 0.5})
	w.Register(res)

	err := w.Cancel(context.Background(), res.TransactionID)
	assert.ErrorIs(t, err, checkout.ErrPersistence)
	assert.Empty(t, repo.adjustments)

	// The slot survives a failed cancel so the operator can retry.
	id, ok := w.Pending()
	require.True(t, ok)
	assert.Equal(t, res.TransactionID, id)
}
