package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"snackhub-be/internal/inventory"
	"snackhub-be/internal/logger"
	"snackhub-be/internal/promo"
	"snackhub-be/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// CreateOrderTx persists the order, its lines and the initial timeline
	// entry, decrements stock per line and redeems the promo code when a
	// discount was applied, all in one transaction. Any failure rolls the
	// whole unit back.
	CreateOrderTx(ctx context.Context, o *Order) error

	// TransitionTx moves the order to target under a row lock, appending
	// the timeline entry in the same transaction, and returns the updated
	// order.
	TransitionTx(ctx context.Context, orderID uuid.UUID, target OrderStatus, note, actor string) (*Order, error)

	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	FetchOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, offset int32) ([]*Order, error)
	CountOrders(ctx context.Context, filter *OrderFilterInput) (int64, error)
	SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status PaymentStatus) error
}

type repository struct {
	db        *sql.DB
	inventory inventory.Ledger
	promos    promo.Ledger
}

func NewRepository(db *sql.DB, inv inventory.Ledger, promos promo.Ledger) Repository {
	return &repository{db: db, inventory: inv, promos: promos}
}

// IsUniqueViolation reports whether err is a postgres duplicate-key error,
// used to retry order-number generation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation
}

func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.String("order_number", o.Number),
		zap.Int("line_count", len(o.Lines)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// 1. Re-check and decrement stock. The pre-check in the service is an
	// optimization only; this is the source of truth.
	for _, line := range o.Lines {
		err := r.inventory.DecrementIfSufficient(ctx, tx, line.ProductID, line.Quantity)
		if errors.Is(err, inventory.ErrInsufficientStock) {
			available := 0
			_ = tx.QueryRowContext(ctx,
				`SELECT stock FROM products WHERE id = $1`, line.ProductID,
			).Scan(&available)

			return &InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
			}
		}
		if err != nil {
			log.Error("failed to decrement stock",
				zap.String("product_id", line.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	// 2. Insert the order.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, number, customer_id, status, payment_status, delivery_type,
			address, city, phone, notes, promo_code,
			subtotal, delivery_fee, discount, total,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		o.ID,
		o.Number,
		o.CustomerID,
		o.Status,
		o.PaymentStatus,
		o.DeliveryType,
		o.Address,
		o.City,
		o.Phone,
		o.Notes,
		o.PromoCode,
		o.Subtotal,
		o.DeliveryFee,
		o.Discount,
		o.Total,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// 3. Insert lines.
	for i, line := range o.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				id, order_id, product_id, product_name,
				quantity, unit_price, line_total
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			line.ID,
			o.ID,
			line.ProductID,
			line.ProductName,
			line.Quantity,
			line.UnitPrice,
			line.LineTotal,
		)
		if err != nil {
			log.Error("failed to insert order line",
				zap.Int("line_index", i),
				zap.String("product_id", line.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	// 4. Initial timeline entry.
	for _, entry := range o.Timeline {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_timeline (id, order_id, status, note, actor, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`,
			entry.ID,
			o.ID,
			entry.Status,
			entry.Note,
			entry.Actor,
			entry.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	// 5. Redeem the promo code inside the same unit, never before or after.
	if o.Discount > 0 && o.PromoCode != nil {
		if err := r.promos.Redeem(ctx, tx, *o.PromoCode); err != nil {
			log.Warn("promo redemption lost at commit time",
				zap.String("promo_code", *o.PromoCode),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("order transaction committed")
	return nil
}

func (r *repository) TransitionTx(ctx context.Context, orderID uuid.UUID, target OrderStatus, note, actor string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "TransitionTx"),
		zap.String("order_id", orderID.String()),
		zap.String("target_status", string(target)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// Row lock keeps the status read and the two writes one atomic unit.
	var current OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders WHERE id = $1 FOR UPDATE
	`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if !CanTransition(current, target) {
		return nil, &IllegalTransitionError{
			From:    current,
			To:      target,
			Allowed: AllowedTargets(current),
		}
	}

	now := time.Now()

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3
	`, target, now, orderID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_timeline (id, order_id, status, note, actor, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, uuid.New(), orderID, target, note, actor, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	log.Info("order status updated", zap.String("from", string(current)))

	return r.GetOrder(ctx, orderID)
}

func (r *repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, number, customer_id, status, payment_status, delivery_type,
		       address, city, phone, notes, promo_code,
		       subtotal, delivery_fee, discount, total,
		       created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&o.ID,
		&o.Number,
		&o.CustomerID,
		&o.Status,
		&o.PaymentStatus,
		&o.DeliveryType,
		&o.Address,
		&o.City,
		&o.Phone,
		&o.Notes,
		&o.PromoCode,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.Discount,
		&o.Total,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, line_total
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.LineTotal,
		); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tlRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, note, actor, created_at
		FROM order_timeline
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer tlRows.Close()

	for tlRows.Next() {
		var entry TimelineEntry
		if err := tlRows.Scan(
			&entry.ID,
			&entry.OrderID,
			&entry.Status,
			&entry.Note,
			&entry.Actor,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		o.Timeline = append(o.Timeline, entry)
	}
	if err := tlRows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) FetchOrders(
	ctx context.Context,
	filter *OrderFilterInput,
	sort *OrderSortInput,
	limit, offset int32,
) ([]*Order, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FetchOrders"),
		zap.Int32("limit", limit),
		zap.Int32("offset", offset),
	)

	query := `
		SELECT o.id, o.number, o.customer_id, o.status, o.payment_status,
		       o.delivery_type, o.subtotal, o.delivery_fee, o.discount, o.total,
		       o.created_at, o.updated_at
		FROM orders o
		WHERE 1=1
	`

	args := []any{}
	argIndex := 1

	// ---------- ACCESS CONTROL ----------
	if !utils.IsStaffContext(ctx) {
		customerID, _ := utils.GetUserIDFromContext(ctx)
		query += fmt.Sprintf(" AND o.customer_id = $%d", argIndex)
		args = append(args, customerID)
		argIndex++
	}

	// ---------- FILTERING ----------
	if filter != nil {
		if filter.Search != nil && *filter.Search != "" {
			query += fmt.Sprintf(
				" AND (o.id::text ILIKE $%d OR o.number ILIKE $%d)",
				argIndex, argIndex,
			)
			args = append(args, "%"+*filter.Search+"%")
			argIndex++
		}

		if filter.Status != nil && *filter.Status != "" {
			query += fmt.Sprintf(" AND o.status = $%d", argIndex)
			args = append(args, *filter.Status)
			argIndex++
		}

		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND o.created_at >= $%d", argIndex)
			args = append(args, *filter.DateFrom)
			argIndex++
		}

		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND o.created_at <= $%d", argIndex)
			args = append(args, *filter.DateTo)
			argIndex++
		}
	}

	// ---------- SORTING ----------
	orderBy := "o.created_at DESC"

	if sort != nil {
		dir := strings.ToUpper(string(sort.Direction))
		if dir != "ASC" && dir != "DESC" {
			dir = "DESC"
		}

		switch sort.Field {
		case OrderSortFieldTotal:
			orderBy = "o.total " + dir
		case OrderSortFieldCreatedAt:
			orderBy = "o.created_at " + dir
		}
	}

	query += " ORDER BY " + orderBy

	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order

	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID,
			&o.Number,
			&o.CustomerID,
			&o.Status,
			&o.PaymentStatus,
			&o.DeliveryType,
			&o.Subtotal,
			&o.DeliveryFee,
			&o.Discount,
			&o.Total,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("fetched orders", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) CountOrders(ctx context.Context, filter *OrderFilterInput) (int64, error) {
	query := `SELECT COUNT(*) FROM orders o WHERE 1=1`

	args := []any{}
	argIndex := 1

	if !utils.IsStaffContext(ctx) {
		customerID, _ := utils.GetUserIDFromContext(ctx)
		query += fmt.Sprintf(" AND o.customer_id = $%d", argIndex)
		args = append(args, customerID)
		argIndex++
	}

	if filter != nil && filter.Status != nil && *filter.Status != "" {
		query += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	var count int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *repository) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2
	`, status, orderID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
