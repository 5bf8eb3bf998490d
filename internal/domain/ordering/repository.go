package ordering

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// ApplyTrackingChanges updates the tracking columns of a single order row.
	// The update is atomic; it returns shared.ErrNotFound when no row matched.
	ApplyTrackingChanges(ctx context.Context, id uuid.UUID, changes TrackingChanges) error

	// Save creates or updates an order
	Save(ctx context.Context, order *Order) error
}
