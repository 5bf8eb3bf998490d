package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueRepository defines the interface for fulfillment queue persistence
type QueueRepository interface {
	// FindByID finds a queue entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*QueueEntry, error)

	// FindDueRetries loads entries in the retry state whose next retry time
	// is at or before now and whose attempt count is below the ceiling,
	// ordered by next retry time
	FindDueRetries(ctx context.Context, now time.Time, ceiling int) ([]QueueEntry, error)

	// Save creates or updates a queue entry
	Save(ctx context.Context, entry *QueueEntry) error

	// UpdateShipment records shipment details on the queue entry for an
	// order, moving it to the given shipped or delivered status. Last
	// write wins; it returns shared.ErrNotFound when the order has no
	// queue entry.
	UpdateShipment(ctx context.Context, orderID uuid.UUID, trackingNumber, carrier string, status Status, shippedAt time.Time) error
}
