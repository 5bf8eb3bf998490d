package affiliate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CommissionRepository defines the interface for commission persistence
type CommissionRepository interface {
	// FindByID finds a commission by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Commission, error)

	// FindSettleable loads pending commissions created before the cutoff,
	// joined with the outcome of their originating orders
	FindSettleable(ctx context.Context, cutoff time.Time) ([]SettlementCandidate, error)

	// MarkApproved approves a commission. The update is guarded on the
	// pending status so a concurrent sweep cannot approve twice.
	MarkApproved(ctx context.Context, id uuid.UUID, approvedAt time.Time) error

	// MarkRejected rejects a commission with a reason, guarded on the
	// pending status like MarkApproved.
	MarkRejected(ctx context.Context, id uuid.UUID, reason string, rejectedAt time.Time) error

	// Save creates or updates a commission
	Save(ctx context.Context, commission *Commission) error
}
