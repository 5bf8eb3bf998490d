package tracking

import (
	"time"

	"github.com/google/uuid"
)

// Notification templates used for tracking updates
const (
	TemplateShippingUpdate = "shipping_update"
	TemplateTrackingUpdate = "tracking_update"
)

// Command is a tracking update to apply to an order
type Command struct {
	OrderID           uuid.UUID
	TrackingNumber    string
	Carrier           string
	Status            string
	EstimatedDelivery *time.Time
	Message           string
}

// Result is the outcome of an applied tracking update
type Result struct {
	OrderID           uuid.UUID `json:"order_id"`
	Status            string    `json:"status"`
	TrackingNumber    string    `json:"tracking_number"`
	FulfillmentSynced bool      `json:"fulfillment_synced"`
}

// Notification is a customer notification handed to the dispatcher
type Notification struct {
	Template          string     `json:"template"`
	OrderID           uuid.UUID  `json:"order_id"`
	OrderNumber       string     `json:"order_number"`
	RecipientEmail    string     `json:"recipient_email"`
	RecipientName     string     `json:"recipient_name"`
	Status            string     `json:"status"`
	TrackingNumber    string     `json:"tracking_number"`
	Carrier           string     `json:"carrier"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	Message           string     `json:"message,omitempty"`
}
