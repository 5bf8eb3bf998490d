package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/affiliate"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormCommissionRepository implements CommissionRepository using GORM
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewGormCommissionRepository creates a new GormCommissionRepository
func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

var _ affiliate.CommissionRepository = (*GormCommissionRepository)(nil)

// settlementRow is the flat scan target for the commission/order join
type settlementRow struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	AffiliateID   uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	Status        affiliate.CommissionStatus
	RejectReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	OrderStatus   ordering.OrderStatus
	PaymentStatus ordering.PaymentStatus
}

// FindByID finds a commission by its ID
func (r *GormCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*affiliate.Commission, error) {
	var model models.CommissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSettleable loads pending commissions created before the cutoff joined
// with the status and payment status of their originating orders
func (r *GormCommissionRepository) FindSettleable(ctx context.Context, cutoff time.Time) ([]affiliate.SettlementCandidate, error) {
	var rows []settlementRow
	err := r.db.WithContext(ctx).
		Table("affiliate_commissions AS c").
		Select("c.id, c.order_id, c.affiliate_id, c.amount, c.currency, c.status, c.reject_reason, c.created_at, c.updated_at, o.status AS order_status, o.payment_status AS payment_status").
		Joins("INNER JOIN orders o ON o.id = c.order_id").
		Where("c.status = ? AND c.created_at < ?", affiliate.CommissionStatusPending, cutoff).
		Order("c.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]affiliate.SettlementCandidate, len(rows))
	for i, row := range rows {
		candidates[i] = affiliate.SettlementCandidate{
			Commission: affiliate.Commission{
				BaseEntity: shared.BaseEntity{
					ID:        row.ID,
					CreatedAt: row.CreatedAt,
					UpdatedAt: row.UpdatedAt,
				},
				OrderID:      row.OrderID,
				AffiliateID:  row.AffiliateID,
				Amount:       row.Amount,
				Currency:     row.Currency,
				Status:       row.Status,
				RejectReason: row.RejectReason,
			},
			OrderStatus:   row.OrderStatus,
			PaymentStatus: row.PaymentStatus,
		}
	}
	return candidates, nil
}

// MarkApproved approves a commission. The status guard makes the update a
// no-op when another sweep already settled the record.
func (r *GormCommissionRepository) MarkApproved(ctx context.Context, id uuid.UUID, approvedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CommissionModel{}).
		Where("id = ? AND status = ?", id, affiliate.CommissionStatusPending).
		Updates(map[string]interface{}{
			"status":      affiliate.CommissionStatusApproved,
			"approved_at": approvedAt,
			"updated_at":  approvedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// MarkRejected rejects a commission with a reason, guarded on the pending
// status like MarkApproved
func (r *GormCommissionRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string, rejectedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CommissionModel{}).
		Where("id = ? AND status = ?", id, affiliate.CommissionStatusPending).
		Updates(map[string]interface{}{
			"status":        affiliate.CommissionStatusRejected,
			"reject_reason": reason,
			"rejected_at":   rejectedAt,
			"updated_at":    rejectedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Save creates or updates a commission
func (r *GormCommissionRepository) Save(ctx context.Context, commission *affiliate.Commission) error {
	var model models.CommissionModel
	model.FromDomain(commission)
	return r.db.WithContext(ctx).Save(&model).Error
}
