package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUnauthorized  = errors.New("unauthorized")

	// -- Constants (External Systems) --
	PgUniqueViolation = "23505"
)

// ValidationError rejects a request before any resource is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ProductUnavailableError names a referenced product that does not exist or
// is not published. No partial order is created.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

// InsufficientStockError names the product and how many units remain.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available,
	)
}

// IllegalTransitionError names the current status, the requested status and
// the set of statuses reachable from the current one.
type IllegalTransitionError struct {
	From    OrderStatus
	To      OrderStatus
	Allowed []OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf(
		"cannot transition order from %s to %s (allowed: %v)",
		e.From, e.To, e.Allowed,
	)
}
