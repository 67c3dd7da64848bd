package models

import "fmt"

var (
	ErrCardNotFound      = fmt.Errorf("card not found")
	ErrInvalidCardID     = fmt.Errorf("invalid card ID format")
	ErrInsufficientFunds = fmt.Errorf("insufficient funds")
	// ErrConflict signals a unique-constraint violation on insert; callers
	// regenerate the card ID and retry.
	ErrConflict = fmt.Errorf("conflict")
	// ErrCardIDSpaceExhausted is returned when the bounded
	// generate-and-check loop runs out of attempts.
	ErrCardIDSpaceExhausted = fmt.Errorf("card id space exhausted")
)

// InsufficientFundsError carries the balance observed under the row hold so
// the caller can report it without a second read.
type InsufficientFundsError struct {
	Balance int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d", e.Balance)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// ValidationError collects per-field messages for a rejected request.
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Details)
}
