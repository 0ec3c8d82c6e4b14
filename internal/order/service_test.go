package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"snackhub-be/internal/catalog"
	"snackhub-be/internal/metrics"
	"snackhub-be/internal/promo"
	"snackhub-be/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) TransitionTx(ctx context.Context, orderID uuid.UUID, target OrderStatus, note, actor string) (*Order, error) {
	args := m.Called(ctx, orderID, target, note, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) FetchOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, offset int32) ([]*Order, error) {
	args := m.Called(ctx, filter, sort, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) CountOrders(ctx context.Context, filter *OrderFilterInput) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status PaymentStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type recordingNotifier struct {
	mu       sync.Mutex
	created  []*Order
	changed  []*Order
	fromList []OrderStatus
}

func (n *recordingNotifier) OrderCreated(ctx context.Context, o *Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, o)
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, o *Order, from OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, o)
	n.fromList = append(n.fromList, from)
}

// --- Helpers ---

var testPricing = Pricing{
	DeliveryFee:           500,
	FreeDeliveryThreshold: 2500,
	NumberPrefix:          "ORD",
}

func newTestService(repo Repository, reader catalog.Reader, promos promo.Ledger, notifier Notifier) Service {
	return NewService(repo, reader, promos, notifier, testPricing, &metrics.OrderCounters{})
}

func defaultCatalog() *catalog.MemoryReader {
	return catalog.NewMemoryReader(
		catalog.Snapshot{ID: "prod-x", Name: "Keripik Singkong", Price: 499, Stock: 5, Published: true},
		catalog.Snapshot{ID: "prod-y", Name: "Banana Chips", Price: 1000, Stock: 10, Published: true},
		catalog.Snapshot{ID: "prod-hidden", Name: "Draft Snack", Price: 100, Stock: 99, Published: false},
	)
}

func pickupInput(lines ...CartLine) SubmitOrderInput {
	return SubmitOrderInput{
		CustomerID:   1,
		Lines:        lines,
		DeliveryType: DeliveryTypePickup,
		Phone:        "08123456789",
	}
}

// --- SubmitOrder ---

func TestSubmitOrder_Validation(t *testing.T) {
	svc := newTestService(new(MockRepository), defaultCatalog(), promo.NewMemoryLedger(), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SubmitOrderInput
		field string
	}{
		{
			name:  "EmptyCart",
			input: SubmitOrderInput{CustomerID: 1, DeliveryType: DeliveryTypePickup, Phone: "0812"},
			field: "lines",
		},
		{
			name:  "ZeroQuantity",
			input: pickupInput(CartLine{ProductID: "prod-x", Quantity: 0}),
			field: "lines",
		},
		{
			name:  "NegativeQuantity",
			input: pickupInput(CartLine{ProductID: "prod-x", Quantity: -2}),
			field: "lines",
		},
		{
			name: "MissingPhone",
			input: SubmitOrderInput{
				CustomerID:   1,
				Lines:        []CartLine{{ProductID: "prod-x", Quantity: 1}},
				DeliveryType: DeliveryTypePickup,
			},
			field: "phone",
		},
		{
			name: "DeliveryWithoutAddress",
			input: SubmitOrderInput{
				CustomerID:   1,
				Lines:        []CartLine{{ProductID: "prod-x", Quantity: 1}},
				DeliveryType: DeliveryTypeDelivery,
				Phone:        "0812",
				City:         utils.StrPtr("Jakarta"),
			},
			field: "address",
		},
		{
			name: "DeliveryWithoutCity",
			input: SubmitOrderInput{
				CustomerID:   1,
				Lines:        []CartLine{{ProductID: "prod-x", Quantity: 1}},
				DeliveryType: DeliveryTypeDelivery,
				Phone:        "0812",
				Address:      utils.StrPtr("Jl. Merdeka 1"),
			},
			field: "city",
		},
		{
			name: "UnknownDeliveryType",
			input: SubmitOrderInput{
				CustomerID:   1,
				Lines:        []CartLine{{ProductID: "prod-x", Quantity: 1}},
				DeliveryType: DeliveryType("DRONE"),
				Phone:        "0812",
			},
			field: "deliveryType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitOrder(ctx, tt.input)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestSubmitOrder_ProductUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownProduct", func(t *testing.T) {
		svc := newTestService(new(MockRepository), defaultCatalog(), promo.NewMemoryLedger(), nil)

		_, err := svc.SubmitOrder(ctx, pickupInput(CartLine{ProductID: "ghost", Quantity: 1}))

		var pErr *ProductUnavailableError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "ghost", pErr.ProductID)
	})

	t.Run("UnpublishedProduct", func(t *testing.T) {
		svc := newTestService(new(MockRepository), defaultCatalog(), promo.NewMemoryLedger(), nil)

		_, err := svc.SubmitOrder(ctx, pickupInput(CartLine{ProductID: "prod-hidden", Quantity: 1}))

		var pErr *ProductUnavailableError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "prod-hidden", pErr.ProductID)
	})

	t.Run("OneBadLineFailsAll", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

		_, err := svc.SubmitOrder(ctx, pickupInput(
			CartLine{ProductID: "prod-x", Quantity: 1},
			CartLine{ProductID: "ghost", Quantity: 1},
		))

		var pErr *ProductUnavailableError
		require.ErrorAs(t, err, &pErr)
		repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
	})
}

func TestSubmitOrder_InsufficientStockPrecheck(t *testing.T) {
	// Scenario: cart wants 2 of a product with stock 1.
	reader := catalog.NewMemoryReader(
		catalog.Snapshot{ID: "prod-x", Name: "Keripik Singkong", Price: 499, Stock: 1, Published: true},
	)
	repo := new(MockRepository)
	svc := newTestService(repo, reader, promo.NewMemoryLedger(), nil)

	_, err := svc.SubmitOrder(context.Background(), pickupInput(CartLine{ProductID: "prod-x", Quantity: 2}))

	var sErr *InsufficientStockError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "prod-x", sErr.ProductID)
	assert.Equal(t, 2, sErr.Requested)
	assert.Equal(t, 1, sErr.Available)
	repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
}

func TestSubmitOrder_PickupNoPromo(t *testing.T) {
	// Scenario: 2 units at 4.99, pickup, no promo.
	repo := new(MockRepository)
	notifier := &recordingNotifier{}
	svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), notifier)

	var created *Order
	repo.On("CreateOrderTx", mock.Anything, mock.AnythingOfType("*order.Order")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*Order)
		}).
		Return(nil)

	o, err := svc.SubmitOrder(context.Background(), pickupInput(CartLine{ProductID: "prod-x", Quantity: 2}))

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(998), o.Subtotal)
	assert.Equal(t, int64(0), o.DeliveryFee)
	assert.Equal(t, int64(0), o.Discount)
	assert.Equal(t, int64(998), o.Total)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)

	require.Len(t, o.Lines, 1)
	assert.Equal(t, int64(499), o.Lines[0].UnitPrice)
	assert.Equal(t, int64(998), o.Lines[0].LineTotal)
	assert.Equal(t, o.ID, o.Lines[0].OrderID)

	require.Len(t, o.Timeline, 1)
	assert.Equal(t, StatusPending, o.Timeline[0].Status)
	assert.Equal(t, "customer:1", o.Timeline[0].Actor)

	assert.NotEmpty(t, o.Number)
	assert.Len(t, notifier.created, 1)
}

func TestSubmitOrder_DeliveryFee(t *testing.T) {
	ctx := context.Background()

	deliveryInput := func(lines ...CartLine) SubmitOrderInput {
		in := pickupInput(lines...)
		in.DeliveryType = DeliveryTypeDelivery
		in.Address = utils.StrPtr("Jl. Merdeka 1")
		in.City = utils.StrPtr("Jakarta")
		return in
	}

	t.Run("Charged below threshold", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

		o, err := svc.SubmitOrder(ctx, deliveryInput(CartLine{ProductID: "prod-y", Quantity: 2}))

		require.NoError(t, err)
		assert.Equal(t, int64(2000), o.Subtotal)
		assert.Equal(t, int64(500), o.DeliveryFee)
		assert.Equal(t, int64(2500), o.Total)
	})

	t.Run("Waived at threshold", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

		o, err := svc.SubmitOrder(ctx, deliveryInput(CartLine{ProductID: "prod-y", Quantity: 3}))

		require.NoError(t, err)
		assert.Equal(t, int64(3000), o.Subtotal)
		assert.Equal(t, int64(0), o.DeliveryFee)
	})
}

func TestSubmitOrder_PromoCode(t *testing.T) {
	ctx := context.Background()
	one := 1
	minOrder := int64(1500)

	newPromoLedger := func() *promo.MemoryLedger {
		return promo.NewMemoryLedger(&promo.PromoCode{
			Code:          "SAVE10",
			DiscountType:  promo.DiscountTypePercentage,
			DiscountValue: 10,
			MinOrder:      &minOrder,
			MaxUses:       &one,
			Active:        true,
		})
	}

	t.Run("PercentageApplied", func(t *testing.T) {
		// Scenario: subtotal 20.00, SAVE10 (10%, minOrder 15.00, maxUses 1).
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		svc := newTestService(repo, defaultCatalog(), newPromoLedger(), nil)

		in := pickupInput(CartLine{ProductID: "prod-y", Quantity: 2})
		in.PromoCode = utils.StrPtr("save10")

		o, err := svc.SubmitOrder(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, int64(2000), o.Subtotal)
		assert.Equal(t, int64(200), o.Discount)
		assert.Equal(t, int64(1800), o.Total)
		require.NotNil(t, o.PromoCode)
		assert.Equal(t, "SAVE10", *o.PromoCode, "code is normalized to uppercase")
	})

	t.Run("BelowMinimumSilentlyIgnored", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		svc := newTestService(repo, defaultCatalog(), newPromoLedger(), nil)

		in := pickupInput(CartLine{ProductID: "prod-y", Quantity: 1})
		in.PromoCode = utils.StrPtr("SAVE10")

		o, err := svc.SubmitOrder(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, int64(0), o.Discount)
		assert.Equal(t, int64(1000), o.Total)
	})

	t.Run("UnknownCodeSilentlyIgnored", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		svc := newTestService(repo, defaultCatalog(), newPromoLedger(), nil)

		in := pickupInput(CartLine{ProductID: "prod-y", Quantity: 2})
		in.PromoCode = utils.StrPtr("GHOST")

		o, err := svc.SubmitOrder(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, int64(0), o.Discount)
	})

	t.Run("ExpiredCodeSilentlyIgnored", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		ledger := promo.NewMemoryLedger(&promo.PromoCode{
			Code:          "OLD",
			DiscountType:  promo.DiscountTypeFixed,
			DiscountValue: 500,
			ExpiresAt:     &past,
			Active:        true,
		})
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		svc := newTestService(repo, defaultCatalog(), ledger, nil)

		in := pickupInput(CartLine{ProductID: "prod-y", Quantity: 2})
		in.PromoCode = utils.StrPtr("OLD")

		o, err := svc.SubmitOrder(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, int64(0), o.Discount)
	})

	t.Run("FixedDiscountClampsTotal", func(t *testing.T) {
		ledger := promo.NewMemoryLedger(&promo.PromoCode{
			Code:          "BIG",
			DiscountType:  promo.DiscountTypeFixed,
			DiscountValue: 5000,
			Active:        true,
		})
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		svc := newTestService(repo, defaultCatalog(), ledger, nil)

		in := pickupInput(CartLine{ProductID: "prod-x", Quantity: 1})
		in.PromoCode = utils.StrPtr("BIG")

		o, err := svc.SubmitOrder(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, int64(499), o.Subtotal)
		assert.Equal(t, int64(5000), o.Discount)
		assert.Equal(t, int64(0), o.Total, "total is clamped at zero")
	})

	t.Run("RedeemConflictFailsOrder", func(t *testing.T) {
		// The discount was priced in; losing the redemption race must fail
		// the whole submission, not silently drop the discount.
		repo := new(MockRepository)
		repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(promo.ErrExhausted)
		svc := newTestService(repo, defaultCatalog(), newPromoLedger(), nil)

		in := pickupInput(CartLine{ProductID: "prod-y", Quantity: 2})
		in.PromoCode = utils.StrPtr("SAVE10")

		_, err := svc.SubmitOrder(ctx, in)
		assert.ErrorIs(t, err, promo.ErrExhausted)
	})
}

func TestSubmitOrder_NumberCollisionRetry(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

	dup := &pq.Error{Code: pq.ErrorCode(PgUniqueViolation)}

	var numbers []string
	repo.On("CreateOrderTx", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			numbers = append(numbers, args.Get(1).(*Order).Number)
		}).
		Return(dup).Once()
	repo.On("CreateOrderTx", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			numbers = append(numbers, args.Get(1).(*Order).Number)
		}).
		Return(nil).Once()

	o, err := svc.SubmitOrder(context.Background(), pickupInput(CartLine{ProductID: "prod-x", Quantity: 1}))

	require.NoError(t, err)
	require.Len(t, numbers, 2)
	assert.NotEqual(t, numbers[0], numbers[1], "a fresh number is generated per attempt")
	assert.Equal(t, numbers[1], o.Number)
}

func TestSubmitOrder_CommitTimeStockRace(t *testing.T) {
	// The pre-check passed but a concurrent order drained stock before
	// commit; the repository reports it and nothing is retried.
	repo := new(MockRepository)
	svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

	repo.On("CreateOrderTx", mock.Anything, mock.Anything).
		Return(&InsufficientStockError{ProductID: "prod-x", Requested: 2, Available: 1}).Once()

	_, err := svc.SubmitOrder(context.Background(), pickupInput(CartLine{ProductID: "prod-x", Quantity: 2}))

	var sErr *InsufficientStockError
	require.ErrorAs(t, err, &sErr)
	repo.AssertNumberOfCalls(t, "CreateOrderTx", 1)
}

// --- Transition ---

func TestTransition(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Success with default note", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := &recordingNotifier{}
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), notifier)

		updated := &Order{
			ID:     orderID,
			Status: StatusConfirmed,
			Timeline: []TimelineEntry{
				{Status: StatusPending},
				{Status: StatusConfirmed, Note: "Status updated to CONFIRMED", Actor: "staff:9"},
			},
		}

		repo.On("TransitionTx", mock.Anything, orderID, StatusConfirmed, "Status updated to CONFIRMED", "staff:9").
			Return(updated, nil)

		o, err := svc.Transition(ctx, orderID, StatusConfirmed, nil, "staff:9")

		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, o.Status)
		require.Len(t, notifier.changed, 1)
		assert.Equal(t, StatusPending, notifier.fromList[0])
	})

	t.Run("Custom note passed through", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

		repo.On("TransitionTx", mock.Anything, orderID, StatusCancelled, "customer changed their mind", "staff:9").
			Return(&Order{ID: orderID, Status: StatusCancelled}, nil)

		_, err := svc.Transition(ctx, orderID, StatusCancelled, utils.StrPtr("customer changed their mind"), "staff:9")
		assert.NoError(t, err)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		svc := newTestService(new(MockRepository), defaultCatalog(), promo.NewMemoryLedger(), nil)

		_, err := svc.Transition(ctx, orderID, OrderStatus("SHIPPED"), nil, "staff:9")

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "status", vErr.Field)
	})

	t.Run("MissingActor", func(t *testing.T) {
		svc := newTestService(new(MockRepository), defaultCatalog(), promo.NewMemoryLedger(), nil)

		_, err := svc.Transition(ctx, orderID, StatusConfirmed, nil, "")

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("IllegalTransitionPropagates", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := &recordingNotifier{}
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), notifier)

		repo.On("TransitionTx", mock.Anything, orderID, StatusReady, mock.Anything, "staff:9").
			Return(nil, &IllegalTransitionError{
				From:    StatusPending,
				To:      StatusReady,
				Allowed: []OrderStatus{StatusConfirmed, StatusCancelled},
			})

		_, err := svc.Transition(ctx, orderID, StatusReady, nil, "staff:9")

		var tErr *IllegalTransitionError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, StatusPending, tErr.From)
		assert.ElementsMatch(t, []OrderStatus{StatusConfirmed, StatusCancelled}, tErr.Allowed)
		assert.Empty(t, notifier.changed)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

		repo.On("TransitionTx", mock.Anything, orderID, StatusConfirmed, mock.Anything, "staff:9").
			Return(nil, ErrOrderNotFound)

		_, err := svc.Transition(ctx, orderID, StatusConfirmed, nil, "staff:9")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

// --- SetPaymentStatus ---

func TestSetPaymentStatus(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

		repo.On("SetPaymentStatus", mock.Anything, orderID, PaymentStatusPaid).Return(nil)

		assert.NoError(t, svc.SetPaymentStatus(ctx, orderID, PaymentStatusPaid))
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		svc := newTestService(new(MockRepository), defaultCatalog(), promo.NewMemoryLedger(), nil)

		err := svc.SetPaymentStatus(ctx, orderID, PaymentStatus("DECLINED"))

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)

		repo.On("SetPaymentStatus", mock.Anything, orderID, PaymentStatusRefunded).Return(ErrOrderNotFound)

		assert.ErrorIs(t, svc.SetPaymentStatus(ctx, orderID, PaymentStatusRefunded), ErrOrderNotFound)
	})
}

// --- Reads ---

func TestGetOrder_AccessControl(t *testing.T) {
	orderID := uuid.New()
	stored := &Order{ID: orderID, CustomerID: 7}

	t.Run("Owner sees own order", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)
		repo.On("GetOrder", mock.Anything, orderID).Return(stored, nil)

		ctx := utils.SetUserContext(context.Background(), 7, "a@b.c", utils.RoleCustomer)
		o, err := svc.GetOrder(ctx, orderID)
		assert.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
	})

	t.Run("Other customer rejected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)
		repo.On("GetOrder", mock.Anything, orderID).Return(stored, nil)

		ctx := utils.SetUserContext(context.Background(), 8, "x@y.z", utils.RoleCustomer)
		_, err := svc.GetOrder(ctx, orderID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("Staff sees any order", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)
		repo.On("GetOrder", mock.Anything, orderID).Return(stored, nil)

		ctx := utils.SetUserContext(context.Background(), 99, "s@t.u", utils.RoleStaff)
		_, err := svc.GetOrder(ctx, orderID)
		assert.NoError(t, err)
	})
}

func TestListOrders_Pagination(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, defaultCatalog(), promo.NewMemoryLedger(), nil)
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		repo.On("FetchOrders", mock.Anything, (*OrderFilterInput)(nil), (*OrderSortInput)(nil), int32(20), int32(0)).
			Return([]*Order{}, nil).Once()

		_, err := svc.ListOrders(ctx, nil, nil, nil, nil)
		assert.NoError(t, err)
	})

	t.Run("Capped at 100", func(t *testing.T) {
		limit := int32(500)
		page := int32(2)
		repo.On("FetchOrders", mock.Anything, (*OrderFilterInput)(nil), (*OrderSortInput)(nil), int32(100), int32(100)).
			Return([]*Order{}, nil).Once()

		_, err := svc.ListOrders(ctx, nil, nil, &limit, &page)
		assert.NoError(t, err)
	})

	t.Run("Error propagates", func(t *testing.T) {
		repo.On("FetchOrders", mock.Anything, (*OrderFilterInput)(nil), (*OrderSortInput)(nil), int32(20), int32(0)).
			Return(nil, errors.New("db error")).Once()

		_, err := svc.ListOrders(ctx, nil, nil, nil, nil)
		assert.Error(t, err)
	})
}
