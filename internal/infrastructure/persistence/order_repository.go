package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ ordering.OrderRepository = (*GormOrderRepository)(nil)

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ApplyTrackingChanges updates the tracking columns of a single order row
// with one UPDATE statement. Timestamp columns are written only when the
// change set carries them, preserving original transition times.
func (r *GormOrderRepository) ApplyTrackingChanges(ctx context.Context, id uuid.UUID, changes ordering.TrackingChanges) error {
	values := map[string]interface{}{
		"tracking_number": changes.TrackingNumber,
		"carrier":         changes.Carrier,
		"status":          changes.Status,
		"updated_at":      time.Now(),
	}
	if changes.EstimatedDelivery != nil {
		values["estimated_delivery"] = *changes.EstimatedDelivery
	}
	if changes.ShippedAt != nil {
		values["shipped_at"] = *changes.ShippedAt
	}
	if changes.DeliveredAt != nil {
		values["delivered_at"] = *changes.DeliveredAt
	}

	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save creates or updates an order
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	return r.db.WithContext(ctx).Save(&model).Error
}
