package service

import "fmt"

// ServiceError represents a pipeline error with a code the handler maps to
// an HTTP status
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeTransactionNotFound  = "transaction_not_found"
	ErrCodeAmbiguousTransaction = "ambiguous_transaction"
	ErrCodeInternalError        = "internal_error"
)
