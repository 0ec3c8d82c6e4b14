package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// ErrInsufficientStock is returned when a decrement would drive stock
// negative. The caller's transaction must abort as a whole.
var ErrInsufficientStock = errors.New("insufficient stock")

// Execer is the subset of database/sql needed by the ledger, satisfied by
// both *sql.DB and *sql.Tx so decrements can join the order transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ledger holds per-product available quantity.
type Ledger interface {
	// DecrementIfSufficient atomically subtracts qty from the product's
	// stock, failing with ErrInsufficientStock when fewer than qty units
	// remain. Safe under arbitrary concurrent callers.
	DecrementIfSufficient(ctx context.Context, ex Execer, productID string, qty int) error

	// Restock adds qty back. Never called by the fulfillment flow itself;
	// it is the policy hook for callers that release stock on cancellation.
	Restock(ctx context.Context, ex Execer, productID string, qty int) error
}

type ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) DecrementIfSufficient(ctx context.Context, ex Execer, productID string, qty int) error {
	if ex == nil {
		ex = l.db
	}

	// Compare-and-decrement in one statement; a plain read-then-write
	// would race between concurrent checkouts for the last units.
	res, err := ex.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1
		WHERE id = $2 AND stock >= $1
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for %s: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (l *ledger) Restock(ctx context.Context, ex Execer, productID string, qty int) error {
	if ex == nil {
		ex = l.db
	}

	res, err := ex.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $1
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("failed to restock %s: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
