package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/domain/affiliate"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// DefaultHoldPeriod is the time a commission stays pending before it is
// eligible for settlement
const DefaultHoldPeriod = 30 * 24 * time.Hour

// RetrySweeper triggers due fulfillment retries after a settlement sweep
type RetrySweeper interface {
	RunSweep(ctx context.Context) (appfulfillment.RetrySummary, error)
}

// Archiver stores a sweep summary for audit
type Archiver interface {
	ArchiveSweep(ctx context.Context, summary SweepSummary, at time.Time) error
}

// MetricsRecorder records settlement sweep metrics
type MetricsRecorder interface {
	RecordSweep(ctx context.Context, approved, rejected, retriesTriggered, failures int, elapsed time.Duration)
}

// SweepSummary reports the outcome of one settlement sweep
type SweepSummary struct {
	Processed        int      `json:"processed"`
	Approved         int      `json:"approved"`
	Rejected         int      `json:"rejected"`
	RetriesTriggered int      `json:"retries_triggered"`
	Errors           []string `json:"errors"`
}

// Service settles affiliate commissions that have aged past the hold
// period, then triggers due fulfillment retries
type Service struct {
	commissions affiliate.CommissionRepository
	retries     RetrySweeper
	holdPeriod  time.Duration
	logger      *zap.Logger
	archiver    Archiver
	metrics     MetricsRecorder
	now         func() time.Time
}

// NewService creates a new settlement Service
func NewService(commissions affiliate.CommissionRepository, retries RetrySweeper, holdPeriod time.Duration, logger *zap.Logger) *Service {
	if holdPeriod <= 0 {
		holdPeriod = DefaultHoldPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		commissions: commissions,
		retries:     retries,
		holdPeriod:  holdPeriod,
		logger:      logger,
		now:         time.Now,
	}
}

// SetArchiver sets the sweep summary archiver
func (s *Service) SetArchiver(archiver Archiver) {
	s.archiver = archiver
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(metrics MetricsRecorder) {
	s.metrics = metrics
}

// Run executes one settlement sweep. Every pending commission past the
// hold period is approved, rejected or left pending according to the
// outcome of its order; a failure on one record is collected in the
// summary and never stops the sweep. Only the initial candidate query
// is fatal. The sweep is idempotent: settled records leave the pending
// pool, so a rerun picks up only what the previous run missed.
func (s *Service) Run(ctx context.Context) (*SweepSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "run_sweep")
	defer span.End()

	start := s.now()
	cutoff := start.Add(-s.holdPeriod)
	summary := &SweepSummary{Errors: make([]string, 0)}

	candidates, err := s.commissions.FindSettleable(ctx, cutoff)
	if err != nil {
		err = fmt.Errorf("load settleable commissions: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("settlement sweep started",
		zap.Time("cutoff", cutoff),
		zap.Int("candidates", len(candidates)))

	for _, cand := range candidates {
		summary.Processed++
		if err := s.settleOne(ctx, cand, start, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("commission %s: %v", cand.Commission.ID, err))
			s.logger.Warn("commission settlement failed",
				zap.String("commission_id", cand.Commission.ID.String()),
				zap.String("order_id", cand.Commission.OrderID.String()),
				zap.Error(err))
		}
	}

	s.runRetries(ctx, summary)

	elapsed := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.RecordSweep(ctx, summary.Approved, summary.Rejected, summary.RetriesTriggered, len(summary.Errors), elapsed)
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveSweep(ctx, *summary, start); err != nil {
			s.logger.Warn("sweep summary archive failed", zap.Error(err))
		}
	}

	telemetry.SetAttributes(span,
		"processed", summary.Processed,
		"approved", summary.Approved,
		"rejected", summary.Rejected,
		"retries_triggered", summary.RetriesTriggered,
		"errors", len(summary.Errors),
	)
	telemetry.SetOK(span)

	s.logger.Info("settlement sweep finished",
		zap.Int("processed", summary.Processed),
		zap.Int("approved", summary.Approved),
		zap.Int("rejected", summary.Rejected),
		zap.Int("retries_triggered", summary.RetriesTriggered),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("elapsed", elapsed))

	return summary, nil
}

func (s *Service) settleOne(ctx context.Context, cand affiliate.SettlementCandidate, now time.Time, summary *SweepSummary) error {
	verdict, reason := affiliate.Settle(cand.OrderStatus, cand.PaymentStatus)
	switch verdict {
	case affiliate.VerdictApprove:
		if err := s.commissions.MarkApproved(ctx, cand.Commission.ID, now); err != nil {
			return err
		}
		summary.Approved++
	case affiliate.VerdictReject:
		if err := s.commissions.MarkRejected(ctx, cand.Commission.ID, reason, now); err != nil {
			return err
		}
		summary.Rejected++
	case affiliate.VerdictHold:
		// Not conclusive yet, a later sweep will pick it up again
	}
	return nil
}

// runRetries triggers due fulfillment retries. Retry failures are
// collected in the summary but never fail the settlement sweep.
func (s *Service) runRetries(ctx context.Context, summary *SweepSummary) {
	if s.retries == nil {
		return
	}
	retrySummary, err := s.retries.RunSweep(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("fulfillment retries: %v", err))
		s.logger.Warn("fulfillment retry sweep failed", zap.Error(err))
		return
	}
	summary.RetriesTriggered = retrySummary.Triggered
	summary.Errors = append(summary.Errors, retrySummary.Errors...)
}
