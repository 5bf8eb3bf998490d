package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	ID                uuid.UUID              `gorm:"type:uuid;primary_key"`
	OrderNumber       string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_number"`
	CustomerEmail     string                 `gorm:"type:varchar(255);not null"`
	CustomerName      string                 `gorm:"type:varchar(255)"`
	TotalAmount       decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	Currency          string                 `gorm:"type:varchar(3);not null;default:'USD'"`
	Status            ordering.OrderStatus   `gorm:"type:varchar(20);not null;index:idx_orders_status"`
	PaymentStatus     ordering.PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'"`
	TrackingNumber    string                 `gorm:"type:varchar(100)"`
	Carrier           string                 `gorm:"type:varchar(50)"`
	EstimatedDelivery *time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *ordering.Order {
	return &ordering.Order{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderNumber:       m.OrderNumber,
		CustomerEmail:     m.CustomerEmail,
		CustomerName:      m.CustomerName,
		TotalAmount:       m.TotalAmount,
		Currency:          m.Currency,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		TrackingNumber:    m.TrackingNumber,
		Carrier:           m.Carrier,
		EstimatedDelivery: m.EstimatedDelivery,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *ordering.Order) {
	m.ID = o.ID
	m.OrderNumber = o.OrderNumber
	m.CustomerEmail = o.CustomerEmail
	m.CustomerName = o.CustomerName
	m.TotalAmount = o.TotalAmount
	m.Currency = o.Currency
	m.Status = o.Status
	m.PaymentStatus = o.PaymentStatus
	m.TrackingNumber = o.TrackingNumber
	m.Carrier = o.Carrier
	m.EstimatedDelivery = o.EstimatedDelivery
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
}
