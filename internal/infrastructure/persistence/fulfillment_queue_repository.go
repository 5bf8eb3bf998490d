package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormFulfillmentQueueRepository implements QueueRepository using GORM
type GormFulfillmentQueueRepository struct {
	db *gorm.DB
}

// NewGormFulfillmentQueueRepository creates a new GormFulfillmentQueueRepository
func NewGormFulfillmentQueueRepository(db *gorm.DB) *GormFulfillmentQueueRepository {
	return &GormFulfillmentQueueRepository{db: db}
}

var _ fulfillment.QueueRepository = (*GormFulfillmentQueueRepository)(nil)

// FindByID finds a queue entry by its ID
func (r *GormFulfillmentQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.QueueEntry, error) {
	var model models.FulfillmentQueueModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDueRetries loads retry entries due at or before now whose attempt
// count is below the ceiling, oldest schedule first
func (r *GormFulfillmentQueueRepository) FindDueRetries(ctx context.Context, now time.Time, ceiling int) ([]fulfillment.QueueEntry, error) {
	var queueModels []models.FulfillmentQueueModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ? AND attempt_count < ?", fulfillment.StatusRetry, now, ceiling).
		Order("next_retry_at ASC").
		Find(&queueModels).Error
	if err != nil {
		return nil, err
	}

	entries := make([]fulfillment.QueueEntry, len(queueModels))
	for i, model := range queueModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Save creates or updates a queue entry
func (r *GormFulfillmentQueueRepository) Save(ctx context.Context, entry *fulfillment.QueueEntry) error {
	var model models.FulfillmentQueueModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Save(&model).Error
}

// UpdateShipment records shipment details on the queue entry of an order.
// Last write wins except for shipped_at, which keeps its first value.
func (r *GormFulfillmentQueueRepository) UpdateShipment(ctx context.Context, orderID uuid.UUID, trackingNumber, carrier string, status fulfillment.Status, shippedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.FulfillmentQueueModel{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":          status,
			"tracking_number": trackingNumber,
			"carrier":         carrier,
			"shipped_at":      gorm.Expr("COALESCE(shipped_at, ?)", shippedAt),
			"next_retry_at":   nil,
			"updated_at":      shippedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
