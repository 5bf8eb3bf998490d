package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the state of a fulfillment queue entry
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusRetry      Status = "retry"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusFailed     Status = "failed"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusRetry, StatusShipped, StatusDelivered, StatusFailed:
		return true
	}
	return false
}

// ShipmentStatus maps an order status to the queue entry status recorded
// when shipment details sync in. Anything other than delivered maps to
// shipped.
func ShipmentStatus(orderStatus string) Status {
	if orderStatus == string(StatusDelivered) {
		return StatusDelivered
	}
	return StatusShipped
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// DefaultAttemptCeiling is the number of fulfillment attempts after which
// an entry is considered permanently failed
const DefaultAttemptCeiling = 3

// QueueEntry represents one order handed to a supplier for fulfillment.
// AttemptCount counts triggered fulfillment attempts; NextRetryAt is set
// only while the entry is in the retry state.
type QueueEntry struct {
	shared.BaseEntity
	OrderID        uuid.UUID
	SupplierRef    string
	Status         Status
	AttemptCount   int
	NextRetryAt    *time.Time
	LastError      string
	TrackingNumber string
	Carrier        string
	ShippedAt      *time.Time
}

// IsRetryDue reports whether the entry is eligible for a retry sweep at
// the given instant: retry status, due retry time and attempts under the
// ceiling.
func (e *QueueEntry) IsRetryDue(now time.Time, ceiling int) bool {
	if e.Status != StatusRetry || e.NextRetryAt == nil {
		return false
	}
	if e.AttemptCount >= ceiling {
		return false
	}
	return !e.NextRetryAt.After(now)
}

// BeginAttempt records that a fulfillment attempt has been triggered
func (e *QueueEntry) BeginAttempt(now time.Time) {
	e.AttemptCount++
	e.Status = StatusProcessing
	e.UpdatedAt = now
}

// ScheduleRetry puts the entry back in the retry state after a failed
// attempt, or marks it failed once the ceiling is reached
func (e *QueueEntry) ScheduleRetry(cause string, nextRetryAt time.Time, ceiling int, now time.Time) {
	e.LastError = cause
	if e.AttemptCount >= ceiling {
		e.Status = StatusFailed
		e.NextRetryAt = nil
	} else {
		e.Status = StatusRetry
		e.NextRetryAt = &nextRetryAt
	}
	e.UpdatedAt = now
}

// MarkQueued returns the entry to the queued state after a successful
// attempt and clears the retry schedule
func (e *QueueEntry) MarkQueued(now time.Time) {
	e.Status = StatusQueued
	e.NextRetryAt = nil
	e.LastError = ""
	e.UpdatedAt = now
}

// MarkShipped records shipment details on the entry. Status must be
// shipped or delivered.
func (e *QueueEntry) MarkShipped(trackingNumber, carrier string, status Status, now time.Time) {
	e.Status = status
	e.TrackingNumber = trackingNumber
	e.Carrier = carrier
	if e.ShippedAt == nil {
		t := now
		e.ShippedAt = &t
	}
	e.NextRetryAt = nil
	e.UpdatedAt = now
}

// Backoff returns the delay before the next retry after the given number
// of attempts: base doubled per attempt already made (base, 2*base, 4*base, ...)
func Backoff(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		return base
	}
	return base << (attempts - 1)
}
