package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

// FulfillmentQueueModel is the persistence model for the QueueEntry domain entity.
type FulfillmentQueueModel struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_fulfillment_queue_order"`
	SupplierRef    string             `gorm:"type:varchar(100)"`
	Status         fulfillment.Status `gorm:"type:varchar(20);not null;index:idx_fulfillment_queue_retry,priority:1"`
	AttemptCount   int                `gorm:"not null;default:0"`
	NextRetryAt    *time.Time         `gorm:"index:idx_fulfillment_queue_retry,priority:2"`
	LastError      string             `gorm:"type:text"`
	TrackingNumber string             `gorm:"type:varchar(100)"`
	Carrier        string             `gorm:"type:varchar(50)"`
	ShippedAt      *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FulfillmentQueueModel) TableName() string {
	return "fulfillment_queue"
}

// ToDomain converts the persistence model to a domain QueueEntry entity.
func (m *FulfillmentQueueModel) ToDomain() *fulfillment.QueueEntry {
	return &fulfillment.QueueEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:        m.OrderID,
		SupplierRef:    m.SupplierRef,
		Status:         m.Status,
		AttemptCount:   m.AttemptCount,
		NextRetryAt:    m.NextRetryAt,
		LastError:      m.LastError,
		TrackingNumber: m.TrackingNumber,
		Carrier:        m.Carrier,
		ShippedAt:      m.ShippedAt,
	}
}

// FromDomain populates the persistence model from a domain QueueEntry entity.
func (m *FulfillmentQueueModel) FromDomain(e *fulfillment.QueueEntry) {
	m.ID = e.ID
	m.OrderID = e.OrderID
	m.SupplierRef = e.SupplierRef
	m.Status = e.Status
	m.AttemptCount = e.AttemptCount
	m.NextRetryAt = e.NextRetryAt
	m.LastError = e.LastError
	m.TrackingNumber = e.TrackingNumber
	m.Carrier = e.Carrier
	m.ShippedAt = e.ShippedAt
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
