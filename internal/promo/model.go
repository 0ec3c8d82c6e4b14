package promo

import (
	"strings"
	"time"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

type PromoCode struct {
	ID            uint
	Code          string // stored upper-cased, matched case-insensitively
	DiscountType  DiscountType
	DiscountValue int64 // percent for PERCENTAGE, minor units for FIXED
	MinOrder      *int64
	MaxUses       *int
	UsedCount     int
	ExpiresAt     *time.Time
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Normalize upper-cases a code the way it is stored.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeemable reports whether the code can currently grant a discount on an
// order of the given subtotal. A false answer is not an error at checkout:
// the order proceeds without a discount.
func (p *PromoCode) Redeemable(subtotal int64, now time.Time) bool {
	if p == nil || !p.Active {
		return false
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
		return false
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return false
	}
	if p.MinOrder != nil && subtotal < *p.MinOrder {
		return false
	}
	return true
}

// DiscountFor computes the discount granted on subtotal, or 0 when the code
// is not redeemable.
func (p *PromoCode) DiscountFor(subtotal int64, now time.Time) int64 {
	if !p.Redeemable(subtotal, now) {
		return 0
	}
	switch p.DiscountType {
	case DiscountTypePercentage:
		return subtotal * p.DiscountValue / 100
	case DiscountTypeFixed:
		return p.DiscountValue
	}
	return 0
}
