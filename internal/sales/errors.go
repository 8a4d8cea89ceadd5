package sales

import "fmt"

// ValidationError reports a malformed or out-of-range sale request. It is
// raised before any storage access and is safe to surface verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced product that no longer exists.
type NotFoundError struct {
	ProductID   string
	ProductName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Product not found: %s (ID: %s)", e.ProductName, e.ProductID)
}

// InsufficientStockError reports a quantity exceeding the available stock.
// The sale it belongs to is never committed.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

// AuthorizationError reports an actor lacking permission for the action or
// operating against the wrong branch. Raised before business validation.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}
