package order

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusPickedUp  OrderStatus = "PICKED_UP"
	StatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "DELIVERY"
	DeliveryTypePickup   DeliveryType = "PICKUP"
)

// Order is the aggregate root. It is created once, atomically, with all its
// lines and the first timeline entry; afterwards it changes only through
// fulfillment transitions or payment-status updates. Money is in minor
// currency units.
type Order struct {
	ID            uuid.UUID
	Number        string
	CustomerID    uint
	Status        OrderStatus
	PaymentStatus PaymentStatus
	DeliveryType  DeliveryType
	Address       *string
	City          *string
	Phone         string
	Notes         *string
	PromoCode     *string

	Subtotal    int64
	DeliveryFee int64
	Discount    int64
	Total       int64 // Subtotal + DeliveryFee - Discount, clamped >= 0

	CreatedAt time.Time
	UpdatedAt time.Time

	Lines    []OrderLine
	Timeline []TimelineEntry
}

// OrderLine freezes the catalog price at order time; it never tracks later
// price changes.
type OrderLine struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   int64
	LineTotal   int64
}

// TimelineEntry is one append-only record of a status change.
type TimelineEntry struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    OrderStatus
	Note      string
	Actor     string
	CreatedAt time.Time
}

type CartLine struct {
	ProductID string
	Quantity  int
}

type SubmitOrderInput struct {
	CustomerID   uint
	Lines        []CartLine
	DeliveryType DeliveryType
	Address      *string
	City         *string
	Phone        string
	Notes        *string
	PromoCode    *string
}

type OrderFilterInput struct {
	Search   *string
	Status   *OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

type SortDirection string

const (
	SortDirectionAsc  SortDirection = "ASC"
	SortDirectionDesc SortDirection = "DESC"
)

type OrderSortField string

const (
	OrderSortFieldCreatedAt OrderSortField = "CREATED_AT"
	OrderSortFieldTotal     OrderSortField = "TOTAL"
)

type OrderSortInput struct {
	Field     OrderSortField
	Direction SortDirection
}
