package affiliate

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
)

// CommissionStatus represents the settlement status of an affiliate commission
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusRejected CommissionStatus = "rejected"
	CommissionStatusPaid     CommissionStatus = "paid"
)

// IsValid checks if the status is a valid CommissionStatus
func (s CommissionStatus) IsValid() bool {
	switch s {
	case CommissionStatusPending, CommissionStatusApproved, CommissionStatusRejected, CommissionStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of CommissionStatus
func (s CommissionStatus) String() string {
	return string(s)
}

// Commission represents an affiliate commission awaiting settlement.
// The amount is recorded at order time by the storefront; this service
// only decides whether the commission survives the hold period.
type Commission struct {
	shared.BaseEntity
	OrderID      uuid.UUID
	AffiliateID  uuid.UUID
	Amount       decimal.Decimal
	Currency     string
	Status       CommissionStatus
	RejectReason string
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
}

// Approve marks a pending commission as approved
func (c *Commission) Approve(now time.Time) error {
	if c.Status != CommissionStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending commissions can be approved")
	}
	c.Status = CommissionStatusApproved
	c.ApprovedAt = &now
	c.UpdatedAt = now
	return nil
}

// Reject marks a pending commission as rejected with a reason
func (c *Commission) Reject(reason string, now time.Time) error {
	if c.Status != CommissionStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending commissions can be rejected")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reject reason is required")
	}
	c.Status = CommissionStatusRejected
	c.RejectReason = reason
	c.RejectedAt = &now
	c.UpdatedAt = now
	return nil
}

// SettlementCandidate is a pending commission joined with the outcome of
// its originating order, as loaded by the settlement sweep.
type SettlementCandidate struct {
	Commission    Commission
	OrderStatus   ordering.OrderStatus
	PaymentStatus ordering.PaymentStatus
}

// Verdict is the settlement decision for a single candidate
type Verdict string

const (
	// VerdictApprove releases the commission for payout
	VerdictApprove Verdict = "approve"
	// VerdictReject voids the commission with a reason
	VerdictReject Verdict = "reject"
	// VerdictHold leaves the commission pending for a later sweep
	VerdictHold Verdict = "hold"
)

// Settle decides the fate of a candidate past its hold period.
// Rejection wins over approval: an unwound order rejects the commission
// even if payment still reads paid, and a refunded payment rejects it
// regardless of order status. Approval requires a fulfilled order AND a
// paid payment; anything else stays pending.
func Settle(orderStatus ordering.OrderStatus, paymentStatus ordering.PaymentStatus) (Verdict, string) {
	if orderStatus.IsUnwound() {
		return VerdictReject, "order " + orderStatus.String()
	}
	if paymentStatus == ordering.PaymentStatusRefunded {
		return VerdictReject, "payment refunded"
	}
	if orderStatus.IsFulfilled() && paymentStatus == ordering.PaymentStatusPaid {
		return VerdictApprove, ""
	}
	return VerdictHold, ""
}
