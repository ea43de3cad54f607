package utils

import "github.com/google/uuid"

// NewID returns a random identifier for locally created records
// (optimistic messages, send ledger rows).
func NewID() string {
	return uuid.NewString()
}
