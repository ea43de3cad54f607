package core

import "errors"

// Error codes surfaced to dashboard clients.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeEmptyText     = "empty_text"
	ErrCodeInvalidRole   = "invalid_role"
	ErrCodeInvalidTarget = "invalid_target"
	ErrCodeRemote        = "remote_failure"
	ErrCodeRateLimited   = "rate_limited"
)

var (
	// ErrRemote marks any rejected request to the message store: transport
	// failure, non-2xx status or an undecodable body all collapse into it.
	ErrRemote = errors.New("message store request failed")
	// ErrEmptyText is returned when a send carries only whitespace.
	ErrEmptyText = errors.New("message text is empty")
	// ErrInvalidRole is returned for roles outside driver/manager/others.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidTarget is returned when a selection names neither a role nor a
	// user, or when a direct message has no known receiver role.
	ErrInvalidTarget = errors.New("invalid selection target")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// ToCoreError classifies err into a client-facing code.
func ToCoreError(err error) *CoreError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEmptyText):
		return coreError(ErrCodeEmptyText, err.Error())
	case errors.Is(err, ErrInvalidRole):
		return coreError(ErrCodeInvalidRole, err.Error())
	case errors.Is(err, ErrInvalidTarget):
		return coreError(ErrCodeInvalidTarget, err.Error())
	case errors.Is(err, ErrRemote):
		return coreError(ErrCodeRemote, err.Error())
	default:
		return coreError(ErrCodeBadRequest, err.Error())
	}
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
