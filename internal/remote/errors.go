package remote

import (
	"fmt"

	"github.com/vovakirdan/wirechat-admin/internal/core"
)

// StatusError is a non-2xx answer from the message store.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap makes every StatusError match core.ErrRemote.
func (e *StatusError) Unwrap() error {
	return core.ErrRemote
}
