// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSettlementMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// SettlementMetrics tracks commission settlement sweeps, fulfillment retries,
// and tracking webhook activity.
type SettlementMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	commissionApprovedTotal *Counter
	commissionRejectedTotal *Counter
	retryTriggeredTotal     *Counter
	sweepFailureTotal       *Counter
	trackingUpdateTotal     *Counter

	// Histogram metrics
	sweepDuration *Histogram
}

// SettlementMetricsConfig holds configuration for settlement metrics.
type SettlementMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSettlementMetrics creates a new SettlementMetrics instance.
func NewSettlementMetrics(cfg SettlementMetricsConfig) (*SettlementMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SettlementMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	sm.commissionApprovedTotal, err = NewCounter(
		cfg.Meter,
		"settlement_commission_approved_total",
		"Total number of commissions approved by settlement sweeps",
		"{commissions}",
	)
	if err != nil {
		return nil, err
	}

	sm.commissionRejectedTotal, err = NewCounter(
		cfg.Meter,
		"settlement_commission_rejected_total",
		"Total number of commissions rejected by settlement sweeps",
		"{commissions}",
	)
	if err != nil {
		return nil, err
	}

	sm.retryTriggeredTotal, err = NewCounter(
		cfg.Meter,
		"settlement_fulfillment_retry_total",
		"Total number of fulfillment retries triggered",
		"{attempts}",
	)
	if err != nil {
		return nil, err
	}

	sm.sweepFailureTotal, err = NewCounter(
		cfg.Meter,
		"settlement_sweep_failure_total",
		"Total number of per-row failures during settlement sweeps",
		"{failures}",
	)
	if err != nil {
		return nil, err
	}

	sm.trackingUpdateTotal, err = NewCounter(
		cfg.Meter,
		"settlement_tracking_update_total",
		"Total number of tracking updates processed",
		"{updates}",
	)
	if err != nil {
		return nil, err
	}

	sm.sweepDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "settlement_sweep_duration_seconds",
		Description: "Duration of settlement sweeps",
		Unit:        "s",
		Boundaries:  []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordSweep records the outcome of one settlement sweep.
func (sm *SettlementMetrics) RecordSweep(ctx context.Context, approved, rejected, retriesTriggered, failures int, elapsed time.Duration) {
	sm.commissionApprovedTotal.Add(ctx, int64(approved))
	sm.commissionRejectedTotal.Add(ctx, int64(rejected))
	sm.retryTriggeredTotal.Add(ctx, int64(retriesTriggered))
	sm.sweepFailureTotal.Add(ctx, int64(failures))
	sm.sweepDuration.RecordDuration(ctx, elapsed)

	sm.logger.Debug("sweep metrics recorded",
		zap.Int("approved", approved),
		zap.Int("rejected", rejected),
		zap.Int("retries_triggered", retriesTriggered),
		zap.Int("failures", failures),
		zap.Duration("elapsed", elapsed),
	)
}

// RecordTrackingUpdate records a processed tracking update labeled by carrier and status.
func (sm *SettlementMetrics) RecordTrackingUpdate(ctx context.Context, carrier, orderStatus string) {
	sm.trackingUpdateTotal.Inc(ctx,
		AttrCarrier.String(carrier),
		AttrOrderStatus.String(orderStatus),
	)
}
