// Package notify defines the event contract between the checkout engine
// and the UI layer. The engine only emits typed events; rendering,
// toasts and countdowns are the consumer's business.
package notify

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SaleCommitted is emitted after a checkout is persisted, carrying enough
// data for a UI to render a cancel affordance with a countdown.
type SaleCommitted struct {
	TransactionID  uuid.UUID
	Number         string
	ProductSummary string
	Quantity       int
	Total          float64
	ExpiresAt      time.Time
}

// SaleCancelled is emitted after a transaction is voided and its stock
// restored.
type SaleCancelled struct {
	TransactionID uuid.UUID
	CancelledAt   time.Time
}

// StorageCapacityWarning is produced by the object-storage accounting
// collaborator, not by the checkout engine; it shares the sink so the UI
// has a single event channel.
type StorageCapacityWarning struct {
	RemainingMB float64
}

// Sink receives checkout lifecycle events. Implementations must not block.
type Sink interface {
	SaleCommitted(ev SaleCommitted)
	SaleCancelled(ev SaleCancelled)
	StorageCapacityWarning(ev StorageCapacityWarning)
}

// LogSink writes events to a structured logger. It is the default sink
// when no UI channel is attached.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) SaleCommitted(ev SaleCommitted) {
	s.log.Info("sale committed",
		"transaction_id", ev.TransactionID,
		"number", ev.Number,
		"products", ev.ProductSummary,
		"quantity", ev.Quantity,
		"total", ev.Total,
		"cancellable_until", ev.ExpiresAt,
	)
}

func (s *LogSink) SaleCancelled(ev SaleCancelled) {
	s.log.Info("sale cancelled",
		"transaction_id", ev.TransactionID,
		"cancelled_at", ev.CancelledAt,
	)
}

func (s *LogSink) StorageCapacityWarning(ev StorageCapacityWarning) {
	s.log.Warn("storage capacity low", "remaining_mb", ev.RemainingMB)
}
