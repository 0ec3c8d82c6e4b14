package promo

import "errors"

var (
	ErrCodeNotFound = errors.New("promo code not found")

	// ErrExhausted means a concurrent order consumed the last redemption
	// between validation and commit. The enclosing order transaction must
	// fail entirely: the discount was already priced into its total.
	ErrExhausted = errors.New("promo code redemption limit reached")
)
