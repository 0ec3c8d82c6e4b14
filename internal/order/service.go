package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snackhub-be/internal/catalog"
	"snackhub-be/internal/logger"
	"snackhub-be/internal/metrics"
	"snackhub-be/internal/promo"
	"snackhub-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// numberRetries bounds regeneration attempts when a generated order number
// collides with an existing one.
const numberRetries = 3

// Notifier receives logical events after each successful commit. Implemented
// by the notification collaborator (see internal/notify).
type Notifier interface {
	OrderCreated(ctx context.Context, o *Order)
	StatusChanged(ctx context.Context, o *Order, from OrderStatus)
}

// Pricing carries the checkout pricing knobs, amounts in minor units.
type Pricing struct {
	DeliveryFee           int64
	FreeDeliveryThreshold int64
	NumberPrefix          string
}

type Service interface {
	SubmitOrder(ctx context.Context, input SubmitOrderInput) (*Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, target OrderStatus, note *string, actor string) (*Order, error)
	SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status PaymentStatus) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, page *int32) ([]*Order, error)
}

type service struct {
	repo     Repository
	catalog  catalog.Reader
	promos   promo.Ledger
	notifier Notifier
	pricing  Pricing
	counters *metrics.OrderCounters
}

func NewService(
	repo Repository,
	reader catalog.Reader,
	promos promo.Ledger,
	notifier Notifier,
	pricing Pricing,
	counters *metrics.OrderCounters,
) Service {
	if pricing.NumberPrefix == "" {
		pricing.NumberPrefix = "ORD"
	}
	if counters == nil {
		counters = &metrics.OrderCounters{}
	}
	return &service{
		repo:     repo,
		catalog:  reader,
		promos:   promos,
		notifier: notifier,
		pricing:  pricing,
		counters: counters,
	}
}

func (in *SubmitOrderInput) validate() error {
	if len(in.Lines) == 0 {
		return &ValidationError{Field: "lines", Message: "cart is empty"}
	}
	for _, line := range in.Lines {
		if line.ProductID == "" {
			return &ValidationError{Field: "lines", Message: "missing product id"}
		}
		if line.Quantity <= 0 {
			return &ValidationError{Field: "lines", Message: "quantity must be greater than zero"}
		}
	}
	if in.Phone == "" {
		return &ValidationError{Field: "phone", Message: "phone is required"}
	}
	switch in.DeliveryType {
	case DeliveryTypeDelivery:
		if utils.PtrString(in.Address) == "" {
			return &ValidationError{Field: "address", Message: "address is required for delivery"}
		}
		if utils.PtrString(in.City) == "" {
			return &ValidationError{Field: "city", Message: "city is required for delivery"}
		}
	case DeliveryTypePickup:
		// no address needed
	default:
		return &ValidationError{Field: "deliveryType", Message: "must be DELIVERY or PICKUP"}
	}
	return nil
}

func (s *service) SubmitOrder(ctx context.Context, input SubmitOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SubmitOrder"),
		zap.Int("line_count", len(input.Lines)),
	)

	log.Info("order submission started")

	// 1. Validate input before touching any resource.
	if err := input.validate(); err != nil {
		log.Warn("invalid submission", zap.Error(err))
		s.counters.Rejected.Inc()
		return nil, err
	}

	// 2. Resolve snapshots for every referenced product in one read.
	ids := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.ProductID)
	}

	snapshots, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		log.Error("failed to resolve product snapshots", zap.Error(err))
		return nil, err
	}

	byID := make(map[string]catalog.Snapshot, len(snapshots))
	for _, snap := range snapshots {
		byID[snap.ID] = snap
	}

	// 3. Availability pre-check and line pricing. Prices are frozen here;
	// the stock check is re-run at commit time.
	var subtotal int64
	lines := make([]OrderLine, 0, len(input.Lines))

	for _, cartLine := range input.Lines {
		snap, ok := byID[cartLine.ProductID]
		if !ok || !snap.Published {
			s.counters.Rejected.Inc()
			return nil, &ProductUnavailableError{ProductID: cartLine.ProductID}
		}
		if snap.Stock < cartLine.Quantity {
			s.counters.Rejected.Inc()
			return nil, &InsufficientStockError{
				ProductID: cartLine.ProductID,
				Requested: cartLine.Quantity,
				Available: snap.Stock,
			}
		}

		lineTotal := snap.Price * int64(cartLine.Quantity)
		subtotal += lineTotal

		lines = append(lines, OrderLine{
			ID:          uuid.New(),
			ProductID:   snap.ID,
			ProductName: snap.Name,
			Quantity:    cartLine.Quantity,
			UnitPrice:   snap.Price,
			LineTotal:   lineTotal,
		})
	}

	// 4. Delivery fee, waived for pickup and for large orders. Computed on
	// the pre-discount subtotal.
	var deliveryFee int64
	if input.DeliveryType == DeliveryTypeDelivery && subtotal < s.pricing.FreeDeliveryThreshold {
		deliveryFee = s.pricing.DeliveryFee
	}

	// 5. Promo code: recomputed server-side, silently ignored when not
	// redeemable. Redemption itself happens inside the commit.
	var discount int64
	var promoCode *string
	if input.PromoCode != nil && *input.PromoCode != "" {
		normalized := promo.Normalize(*input.PromoCode)
		promoCode = &normalized

		code, err := s.promos.Lookup(ctx, normalized)
		switch {
		case err == nil:
			discount = code.DiscountFor(subtotal, time.Now())
			if discount == 0 {
				log.Info("promo code not applicable",
					zap.String("promo_code", normalized),
				)
			}
		case errors.Is(err, promo.ErrCodeNotFound):
			log.Info("promo code not found", zap.String("promo_code", normalized))
		default:
			log.Error("failed to look up promo code", zap.Error(err))
			return nil, err
		}
	}

	total := subtotal + deliveryFee - discount
	if total < 0 {
		total = 0
	}

	now := time.Now()
	actor := fmt.Sprintf("customer:%d", input.CustomerID)

	o := &Order{
		ID:            uuid.New(),
		CustomerID:    input.CustomerID,
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,
		DeliveryType:  input.DeliveryType,
		Address:       input.Address,
		City:          input.City,
		Phone:         input.Phone,
		Notes:         input.Notes,
		PromoCode:     promoCode,
		Subtotal:      subtotal,
		DeliveryFee:   deliveryFee,
		Discount:      discount,
		Total:         total,
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines:         lines,
	}
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
	}
	o.Timeline = []TimelineEntry{{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Status:    StatusPending,
		Note:      "Order placed",
		Actor:     actor,
		CreatedAt: now,
	}}

	log = log.With(
		zap.Int64("subtotal", subtotal),
		zap.Int64("delivery_fee", deliveryFee),
		zap.Int64("discount", discount),
		zap.Int64("total", total),
	)

	// 6. Atomic commit, retrying only on an order-number collision.
	for attempt := 0; ; attempt++ {
		o.Number = utils.GenerateOrderNumber(s.pricing.NumberPrefix)

		err = s.repo.CreateOrderTx(ctx, o)
		if err == nil {
			break
		}
		if IsUniqueViolation(err) && attempt < numberRetries {
			log.Warn("order number collision, regenerating",
				zap.String("order_number", o.Number),
			)
			continue
		}
		log.Error("failed to create order", zap.Error(err))
		s.counters.Rejected.Inc()
		return nil, err
	}

	s.counters.Submitted.Inc()
	log.Info("order created", zap.String("order_number", o.Number))

	if s.notifier != nil {
		s.notifier.OrderCreated(ctx, o)
	}

	return o, nil
}

func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target OrderStatus, note *string, actor string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Transition"),
		zap.String("order_id", orderID.String()),
		zap.String("target_status", string(target)),
	)

	if !ValidStatus(target) {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %s", target)}
	}
	if actor == "" {
		return nil, &ValidationError{Field: "actor", Message: "actor is required"}
	}

	entryNote := utils.PtrString(note)
	if entryNote == "" {
		entryNote = fmt.Sprintf("Status updated to %s", target)
	}

	// The legality check runs inside the transaction, under the row lock.
	var from OrderStatus
	o, err := s.repo.TransitionTx(ctx, orderID, target, entryNote, actor)
	if err != nil {
		log.Warn("transition rejected", zap.Error(err))
		return nil, err
	}

	if n := len(o.Timeline); n >= 2 {
		from = o.Timeline[n-2].Status
	}

	s.counters.Transitions.Inc()
	log.Info("transition applied", zap.String("from", string(from)))

	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, o, from)
	}

	return o, nil
}

func (s *service) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status PaymentStatus) error {
	switch status {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
	default:
		return &ValidationError{Field: "paymentStatus", Message: fmt.Sprintf("unknown payment status %s", status)}
	}

	if err := s.repo.SetPaymentStatus(ctx, orderID, status); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("payment status updated",
		zap.String("order_id", orderID.String()),
		zap.String("payment_status", string(status)),
	)
	return nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Customers only see their own orders.
	if !utils.IsStaffContext(ctx) {
		if customerID, ok := utils.GetUserIDFromContext(ctx); ok && o.CustomerID != customerID {
			return nil, ErrUnauthorized
		}
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, page *int32) ([]*Order, error) {
	finalLimit := int32(20)
	finalPage := int32(1)

	if limit != nil && *limit > 0 {
		finalLimit = *limit
	}
	if page != nil && *page > 0 {
		finalPage = *page
	}
	if finalLimit > 100 {
		finalLimit = 100
	}

	offset := (finalPage - 1) * finalLimit

	return s.repo.FetchOrders(ctx, filter, sort, finalLimit, offset)
}
