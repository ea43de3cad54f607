package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a ledger row does not exist.
var ErrNotFound = errors.New("not found")

// Delivery states recorded for a send attempt.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// SendRecord is one optimistic send attempt made from the dashboard.
// It is an audit trail only; conversation history is never read back from it.
type SendRecord struct {
	ID           string
	Conversation string // conversation key, e.g. "broadcast:driver" or "direct:42"
	Text         string
	Delivery     string
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SendLog handles send audit persistence.
type SendLog interface {
	// RecordSend stores a new send attempt.
	RecordSend(ctx context.Context, rec *SendRecord) error

	// UpdateSendDelivery sets the final delivery state of an attempt.
	UpdateSendDelivery(ctx context.Context, id, delivery, errMsg string) error

	// GetSend retrieves one attempt by ID.
	GetSend(ctx context.Context, id string) (*SendRecord, error)

	// ListSends returns the most recent attempts first.
	// An empty delivery lists every state.
	ListSends(ctx context.Context, limit int, delivery string) ([]*SendRecord, error)

	// Close closes the underlying database connection.
	Close() error
}
