package checkout

import (
	"context"
	"fmt"
	"time"
)

// Period scopes transaction numbers to a calendar month, formatted as
// two-digit year, two-digit month ("24-05").
type Period string

func PeriodOf(t time.Time) Period {
	return Period(t.Format("06-01"))
}

// SequenceSource reads the highest sequence already issued for a period
// from the persisted sale rows.
type SequenceSource interface {
	MaxSequence(ctx context.Context, period Period) (int, error)
}

// Numberer hands out period-scoped, human-readable transaction numbers of
// the form "24-05-0001". The sequence restarts at 1 for each new period.
//
// The read-then-issue pair is not atomic: two checkouts running
// concurrently can both observe the same maximum and be issued the same
// number. Serializing issuance needs the store's native conditional
// update primitives and is deliberately not re-implemented here.
type Numberer struct {
	src SequenceSource
}

func NewNumberer(src SequenceSource) *Numberer {
	return &Numberer{src: src}
}

func (n *Numberer) Next(ctx context.Context, period Period) (string, error) {
	max, err := n.src.MaxSequence(ctx, period)
	if err != nil {
		return "", fmt.Errorf("reading max sequence for %s: %w", period, err)
	}

	return fmt.Sprintf("%s-%04d", period, max+1), nil
}
