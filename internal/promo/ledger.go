package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"snackhub-be/internal/logger"

	"go.uber.org/zap"
)

// Execer is satisfied by *sql.DB and *sql.Tx so a redemption can join the
// order-creation transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ledger stores promo code definitions and their redemption counters.
type Ledger interface {
	// Lookup finds a code case-insensitively. Returns ErrCodeNotFound when
	// no such code exists.
	Lookup(ctx context.Context, code string) (*PromoCode, error)

	// Redeem increments the code's usage counter, guarded against the
	// usage cap. Under concurrent callers at most MaxUses redemptions ever
	// succeed; a loser gets ErrExhausted.
	Redeem(ctx context.Context, ex Execer, code string) error

	Create(ctx context.Context, p *PromoCode) error
	Deactivate(ctx context.Context, code string) error
}

type ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) Lookup(ctx context.Context, code string) (*PromoCode, error) {
	query := `
		SELECT id, code, discount_type, discount_value, min_order,
		       max_uses, used_count, expires_at, active, created_at, updated_at
		FROM promo_codes
		WHERE upper(code) = $1
	`

	var p PromoCode
	err := l.db.QueryRowContext(ctx, query, Normalize(code)).Scan(
		&p.ID,
		&p.Code,
		&p.DiscountType,
		&p.DiscountValue,
		&p.MinOrder,
		&p.MaxUses,
		&p.UsedCount,
		&p.ExpiresAt,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to look up promo code", zap.Error(err))
		return nil, err
	}

	return &p, nil
}

func (l *ledger) Redeem(ctx context.Context, ex Execer, code string) error {
	if ex == nil {
		ex = l.db
	}

	// Guarded increment: the cap check and the bump are one statement, so
	// two orders racing for the last use cannot both succeed.
	res, err := ex.ExecContext(ctx, `
		UPDATE promo_codes
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE upper(code) = $1
		  AND active
		  AND (max_uses IS NULL OR used_count < max_uses)
	`, Normalize(code))
	if err != nil {
		return fmt.Errorf("failed to redeem promo code: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExhausted
	}
	return nil
}

func (l *ledger) Create(ctx context.Context, p *PromoCode) error {
	p.Code = Normalize(p.Code)

	query := `
		INSERT INTO promo_codes (
			code, discount_type, discount_value, min_order,
			max_uses, used_count, expires_at, active
		) VALUES ($1,$2,$3,$4,$5,0,$6,$7)
		RETURNING id, created_at, updated_at
	`

	return l.db.QueryRowContext(ctx, query,
		p.Code,
		p.DiscountType,
		p.DiscountValue,
		p.MinOrder,
		p.MaxUses,
		p.ExpiresAt,
		p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (l *ledger) Deactivate(ctx context.Context, code string) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE promo_codes
		SET active = FALSE, updated_at = NOW()
		WHERE upper(code) = $1
	`, Normalize(code))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCodeNotFound
	}
	return nil
}
