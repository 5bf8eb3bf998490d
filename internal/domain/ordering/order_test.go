package ordering

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
)

// Test helpers
func createTestOrder() *Order {
	return &Order{
		BaseEntity:    shared.NewBaseEntity(),
		OrderNumber:   "ORD-2026-0001",
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Test Buyer",
		TotalAmount:   decimal.NewFromFloat(49.90),
		Currency:      "USD",
		Status:        OrderStatusConfirmed,
		PaymentStatus: PaymentStatusPaid,
	}
}

// ============================================
// OrderStatus Tests
// ============================================

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  OrderStatus
		isValid bool
	}{
		{OrderStatusPending, true},
		{OrderStatusConfirmed, true},
		{OrderStatusShipped, true},
		{OrderStatusDelivered, true},
		{OrderStatusCancelled, true},
		{OrderStatusRefunded, true},
		{OrderStatusFailed, true},
		{OrderStatus("unknown"), false},
		{OrderStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestOrderStatus_IsUnwound(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		unwound  bool
	}{
		{OrderStatusCancelled, true},
		{OrderStatusRefunded, true},
		{OrderStatusFailed, true},
		{OrderStatusPending, false},
		{OrderStatusConfirmed, false},
		{OrderStatusShipped, false},
		{OrderStatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.unwound, tt.status.IsUnwound())
		})
	}
}

func TestOrderStatus_IsFulfilled(t *testing.T) {
	tests := []struct {
		status    OrderStatus
		fulfilled bool
	}{
		{OrderStatusConfirmed, true},
		{OrderStatusShipped, true},
		{OrderStatusDelivered, true},
		{OrderStatusPending, false},
		{OrderStatusCancelled, false},
		{OrderStatusRefunded, false},
		{OrderStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.fulfilled, tt.status.IsFulfilled())
		})
	}
}

// ============================================
// ApplyTracking Tests
// ============================================

func TestOrder_ApplyTracking_ShippedStampsTimestamp(t *testing.T) {
	order := createTestOrder()
	now := time.Now()

	changes, err := order.ApplyTracking(TrackingPatch{
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        "ups",
		Status:         OrderStatusShipped,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, OrderStatusShipped, changes.Status)
	assert.Equal(t, "1Z999AA10123456784", changes.TrackingNumber)
	assert.Equal(t, "ups", changes.Carrier)
	require.NotNil(t, changes.ShippedAt)
	assert.Equal(t, now, *changes.ShippedAt)
	assert.Nil(t, changes.DeliveredAt)

	assert.Equal(t, OrderStatusShipped, order.Status)
	require.NotNil(t, order.ShippedAt)
}

func TestOrder_ApplyTracking_ShippedKeepsExistingTimestamp(t *testing.T) {
	order := createTestOrder()
	first := time.Now().Add(-24 * time.Hour)
	order.Status = OrderStatusShipped
	order.ShippedAt = &first

	changes, err := order.ApplyTracking(TrackingPatch{Status: OrderStatusShipped}, time.Now())
	require.NoError(t, err)

	// Repeated shipped updates must not move the original timestamp
	assert.Nil(t, changes.ShippedAt)
	assert.Equal(t, first, *order.ShippedAt)
}

func TestOrder_ApplyTracking_DeliveredStampsTimestamp(t *testing.T) {
	order := createTestOrder()
	order.Status = OrderStatusShipped
	now := time.Now()

	changes, err := order.ApplyTracking(TrackingPatch{Status: OrderStatusDelivered}, now)
	require.NoError(t, err)

	assert.Equal(t, OrderStatusDelivered, changes.Status)
	require.NotNil(t, changes.DeliveredAt)
	assert.Equal(t, now, *changes.DeliveredAt)
	assert.Nil(t, changes.ShippedAt)
}

func TestOrder_ApplyTracking_OtherStatusPassesThrough(t *testing.T) {
	order := createTestOrder()

	changes, err := order.ApplyTracking(TrackingPatch{Status: OrderStatusCancelled}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, OrderStatusCancelled, changes.Status)
	assert.Nil(t, changes.ShippedAt)
	assert.Nil(t, changes.DeliveredAt)
}

func TestOrder_ApplyTracking_EmptyFieldsKeepCurrentValues(t *testing.T) {
	order := createTestOrder()
	order.TrackingNumber = "EXISTING-123"
	order.Carrier = "dhl"

	changes, err := order.ApplyTracking(TrackingPatch{Status: OrderStatusShipped}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "EXISTING-123", changes.TrackingNumber)
	assert.Equal(t, "dhl", changes.Carrier)
}

func TestOrder_ApplyTracking_NoStatusKeepsCurrent(t *testing.T) {
	order := createTestOrder()

	changes, err := order.ApplyTracking(TrackingPatch{TrackingNumber: "T-1"}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, OrderStatusConfirmed, changes.Status)
	assert.Equal(t, "T-1", changes.TrackingNumber)
}

func TestOrder_ApplyTracking_InvalidStatus(t *testing.T) {
	order := createTestOrder()

	_, err := order.ApplyTracking(TrackingPatch{Status: OrderStatus("teleported")}, time.Now())
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATUS", domainErr.Code)
}

func TestOrder_ApplyTracking_EstimatedDelivery(t *testing.T) {
	order := createTestOrder()
	eta := time.Now().Add(72 * time.Hour)

	changes, err := order.ApplyTracking(TrackingPatch{EstimatedDelivery: &eta}, time.Now())
	require.NoError(t, err)

	require.NotNil(t, changes.EstimatedDelivery)
	assert.Equal(t, eta, *changes.EstimatedDelivery)
	assert.Equal(t, eta, *order.EstimatedDelivery)
}
