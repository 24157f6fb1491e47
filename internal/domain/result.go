package domain

import "errors"

// ErrUnknownKind indicates a transaction kind outside the closed set.
var ErrUnknownKind = errors.New("unknown transaction type")

// Result is the structured outcome of a mutating ledger operation.
// Validation failures are reported here as Success=false with a
// human-readable message, never as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OK builds a successful result with a confirmation message.
func OK(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail builds a failed result with the reason.
func Fail(message string) Result {
	return Result{Message: message}
}
