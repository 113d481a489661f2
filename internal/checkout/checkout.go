// Package checkout commits carts: it validates them against a fresh
// inventory snapshot, assigns a sequential transaction number, persists
// sale rows, and applies aggregated stock deductions.
package checkout

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrPersistence marks failures of the backing store during a checkout or
// cancellation. When it occurs before the sale rows are written the whole
// checkout is aborted; after that point it degrades to a partial commit.
var ErrPersistence = errors.New("checkout: persistence failed")

// State names a position in the commit lifecycle:
// Idle -> Validating -> Persisting -> Committed on the happy path,
// Validating -> Rejected before anything is written, and
// Persisting -> PartiallyFailed when sale rows landed but one or more
// stock deductions did not.
type State string

const (
	StateIdle            State = "idle"
	StateValidating      State = "validating"
	StatePersisting      State = "persisting"
	StateCommitted       State = "committed"
	StateRejected        State = "rejected"
	StatePartiallyFailed State = "partially_failed"
)

// CartLine is one product in a cart. Quantity is always >= 1.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Cart is an ordered collection of lines keyed by product identity.
// Re-adding a product merges quantities into its existing line.
type Cart struct {
	lines []CartLine
}

// Add appends qty units of a product, merging with an existing line.
// Quantities below 1 are ignored.
func (c *Cart) Add(productID uuid.UUID, qty int) {
	if qty < 1 {
		return
	}

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity += qty
			return
		}
	}

	c.lines = append(c.lines, CartLine{ProductID: productID, Quantity: qty})
}

// Remove drops a product's line entirely.
func (c *Cart) Remove(productID uuid.UUID) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)

	return out
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Units is the total number of product units across all lines.
func (c *Cart) Units() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}

	return n
}

// Sale is one persisted row of a transaction, one per (transaction,
// product) pair. Name, cost and price are snapshots taken at commit time;
// after creation only the cancellation fields may ever change.
type Sale struct {
	ID               uuid.UUID
	TransactionID    uuid.UUID
	Number           string
	ProductID        uuid.UUID
	ProductName      string
	Quantity         int
	UnitCost         float64
	Price            float64
	Total            float64
	PaymentMethod    string
	CustomerCategory string
	SeatingMode      string
	CreatedAt        time.Time
	CancelledAt      *time.Time
}

// Deduction is the aggregated stock effect of a committed transaction on
// one inventory item. Display is the summed requirement across every
// recipe line in the cart that references the item; Storage is that sum
// converted once to storage units - the amount actually subtracted, and
// the amount a cancellation adds back.
type Deduction struct {
	ItemID  uuid.UUID
	Display float64
	Storage float64
}

// ItemFailure records a stock deduction that could not be applied after
// the sale rows were already written.
type ItemFailure struct {
	ItemID uuid.UUID
	Err    error
}

// Result is the outcome of a successful or partially successful commit.
type Result struct {
	State         State
	TransactionID uuid.UUID
	Number        string
	Sales         []*Sale
	Deductions    []Deduction
	FailedItems   []ItemFailure
	CommittedAt   time.Time
}

// ValidationError rejects a checkout before any persistence. The cart is
// untouched and the user can correct the input.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "checkout rejected: " + strings.Join(e.Reasons, "; ")
}
