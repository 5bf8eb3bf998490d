package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/affiliate"
	"github.com/storefront/backend/internal/domain/shared"
)

// CommissionModel is the persistence model for the Commission domain entity.
type CommissionModel struct {
	ID           uuid.UUID                  `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID                  `gorm:"type:uuid;not null;index:idx_commissions_order"`
	AffiliateID  uuid.UUID                  `gorm:"type:uuid;not null;index:idx_commissions_affiliate"`
	Amount       decimal.Decimal            `gorm:"type:decimal(12,2);not null"`
	Currency     string                     `gorm:"type:varchar(3);not null;default:'USD'"`
	Status       affiliate.CommissionStatus `gorm:"type:varchar(20);not null;index:idx_commissions_settleable,priority:1"`
	RejectReason string                     `gorm:"type:varchar(255)"`
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
	CreatedAt    time.Time `gorm:"not null;index:idx_commissions_settleable,priority:2"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CommissionModel) TableName() string {
	return "affiliate_commissions"
}

// ToDomain converts the persistence model to a domain Commission entity.
func (m *CommissionModel) ToDomain() *affiliate.Commission {
	return &affiliate.Commission{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:      m.OrderID,
		AffiliateID:  m.AffiliateID,
		Amount:       m.Amount,
		Currency:     m.Currency,
		Status:       m.Status,
		RejectReason: m.RejectReason,
		ApprovedAt:   m.ApprovedAt,
		RejectedAt:   m.RejectedAt,
	}
}

// FromDomain populates the persistence model from a domain Commission entity.
func (m *CommissionModel) FromDomain(c *affiliate.Commission) {
	m.ID = c.ID
	m.OrderID = c.OrderID
	m.AffiliateID = c.AffiliateID
	m.Amount = c.Amount
	m.Currency = c.Currency
	m.Status = c.Status
	m.RejectReason = c.RejectReason
	m.ApprovedAt = c.ApprovedAt
	m.RejectedAt = c.RejectedAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}
