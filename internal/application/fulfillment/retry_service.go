package fulfillment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Invoker triggers a single fulfillment attempt at the supplier
type Invoker interface {
	Invoke(ctx context.Context, entry fulfillment.QueueEntry) error
}

// RetrySummary reports the outcome of one retry sweep
type RetrySummary struct {
	Due         int      `json:"due"`
	Triggered   int      `json:"triggered"`
	Succeeded   int      `json:"succeeded"`
	Rescheduled int      `json:"rescheduled"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors"`
}

// RetryService sweeps the fulfillment queue for entries that are due a
// retry and triggers one attempt per entry. Attempt accounting lives
// here: the count is incremented before the supplier is invoked, so a
// crash mid-sweep can under-deliver but never over-deliver attempts.
type RetryService struct {
	queue     fulfillment.QueueRepository
	invoker   Invoker
	ceiling   int
	baseDelay time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRetryService creates a new RetryService
func NewRetryService(queue fulfillment.QueueRepository, invoker Invoker, ceiling int, baseDelay time.Duration, logger *zap.Logger) *RetryService {
	if ceiling <= 0 {
		ceiling = fulfillment.DefaultAttemptCeiling
	}
	if baseDelay <= 0 {
		baseDelay = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryService{
		queue:     queue,
		invoker:   invoker,
		ceiling:   ceiling,
		baseDelay: baseDelay,
		logger:    logger,
		now:       time.Now,
	}
}

// RunSweep triggers at most one fulfillment attempt for every due entry.
// A failed attempt is rescheduled with exponential backoff, or marked
// failed once the attempt ceiling is reached. One entry never blocks the
// rest; only the initial queue query is fatal.
func (s *RetryService) RunSweep(ctx context.Context) (RetrySummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "retry_sweep")
	defer span.End()

	summary := RetrySummary{Errors: make([]string, 0)}
	now := s.now()

	entries, err := s.queue.FindDueRetries(ctx, now, s.ceiling)
	if err != nil {
		err = fmt.Errorf("load due fulfillment retries: %w", err)
		telemetry.RecordError(span, err)
		return summary, err
	}
	summary.Due = len(entries)

	for i := range entries {
		entry := entries[i]
		if !entry.IsRetryDue(now, s.ceiling) {
			continue
		}

		entry.BeginAttempt(now)
		if err := s.queue.Save(ctx, &entry); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("fulfillment %s: %v", entry.ID, err))
			s.logger.Warn("failed to record fulfillment attempt",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err))
			continue
		}
		summary.Triggered++

		if invokeErr := s.invoker.Invoke(ctx, entry); invokeErr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("fulfillment %s: %v", entry.ID, invokeErr))
			next := now.Add(fulfillment.Backoff(s.baseDelay, entry.AttemptCount))
			entry.ScheduleRetry(invokeErr.Error(), next, s.ceiling, now)
			if entry.Status == fulfillment.StatusFailed {
				summary.Failed++
			} else {
				summary.Rescheduled++
			}
			s.logger.Warn("fulfillment attempt failed",
				zap.String("entry_id", entry.ID.String()),
				zap.String("order_id", entry.OrderID.String()),
				zap.Int("attempt", entry.AttemptCount),
				zap.String("status", entry.Status.String()),
				zap.Error(invokeErr))
		} else {
			entry.MarkQueued(now)
			summary.Succeeded++
		}

		if err := s.queue.Save(ctx, &entry); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("fulfillment %s: %v", entry.ID, err))
			s.logger.Warn("failed to persist fulfillment attempt outcome",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err))
		}
	}

	telemetry.SetAttributes(span,
		"due", summary.Due,
		"triggered", summary.Triggered,
		"succeeded", summary.Succeeded,
		"rescheduled", summary.Rescheduled,
		"failed", summary.Failed,
	)
	telemetry.SetOK(span)

	return summary, nil
}
