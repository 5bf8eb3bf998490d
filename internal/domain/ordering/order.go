package ordering

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of a customer order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusFailed    OrderStatus = "failed"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsUnwound returns true if the order reached a state in which it will never
// be fulfilled (cancelled, refunded or failed)
func (s OrderStatus) IsUnwound() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded || s == OrderStatusFailed
}

// IsFulfilled returns true if the order reached a state in which the sale
// held (confirmed, shipped or delivered)
func (s OrderStatus) IsFulfilled() bool {
	return s == OrderStatusConfirmed || s == OrderStatusShipped || s == OrderStatusDelivered
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Order represents a customer order as seen by the settlement and
// fulfillment pipeline. Checkout and payment live in other systems;
// this service only reads outcomes and applies shipment state.
type Order struct {
	shared.BaseEntity
	OrderNumber       string
	CustomerEmail     string
	CustomerName      string
	TotalAmount       decimal.Decimal
	Currency          string
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
}

// TrackingPatch is a partial update delivered by a carrier or supplier
// webhook. Nil/empty fields are left untouched on the order.
type TrackingPatch struct {
	TrackingNumber    string
	Carrier           string
	Status            OrderStatus
	EstimatedDelivery *time.Time
}

// TrackingChanges is the resolved column set for a single-row order update.
// Timestamp pointers are set only when the corresponding transition happened.
type TrackingChanges struct {
	TrackingNumber    string
	Carrier           string
	Status            OrderStatus
	EstimatedDelivery *time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
}

// ApplyTracking applies a tracking patch to the order and returns the
// resolved change set. A "shipped" status forces the shipped state and
// stamps ShippedAt; "delivered" forces delivered and stamps DeliveredAt;
// any other valid status passes through unchanged. Empty patch fields
// keep the current order values.
func (o *Order) ApplyTracking(patch TrackingPatch, now time.Time) (TrackingChanges, error) {
	changes := TrackingChanges{
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		Status:         o.Status,
	}

	if patch.TrackingNumber != "" {
		changes.TrackingNumber = patch.TrackingNumber
	}
	if patch.Carrier != "" {
		changes.Carrier = patch.Carrier
	}
	if patch.EstimatedDelivery != nil {
		changes.EstimatedDelivery = patch.EstimatedDelivery
	}

	if patch.Status != "" {
		if !patch.Status.IsValid() {
			return TrackingChanges{}, shared.NewDomainError("INVALID_STATUS", "Unknown order status")
		}
		switch patch.Status {
		case OrderStatusShipped:
			changes.Status = OrderStatusShipped
			if o.ShippedAt == nil {
				t := now
				changes.ShippedAt = &t
			}
		case OrderStatusDelivered:
			changes.Status = OrderStatusDelivered
			if o.DeliveredAt == nil {
				t := now
				changes.DeliveredAt = &t
			}
		default:
			changes.Status = patch.Status
		}
	}

	o.TrackingNumber = changes.TrackingNumber
	o.Carrier = changes.Carrier
	o.Status = changes.Status
	if changes.EstimatedDelivery != nil {
		o.EstimatedDelivery = changes.EstimatedDelivery
	}
	if changes.ShippedAt != nil {
		o.ShippedAt = changes.ShippedAt
	}
	if changes.DeliveredAt != nil {
		o.DeliveredAt = changes.DeliveredAt
	}
	o.UpdatedAt = now

	return changes, nil
}

// IsShipped returns true if the order has been shipped
func (o *Order) IsShipped() bool {
	return o.Status == OrderStatusShipped
}

// IsDelivered returns true if the order has been delivered
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}
