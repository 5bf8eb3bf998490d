package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/application/settlement"
	"go.uber.org/zap"
)

// SweepRunner runs one settlement sweep
type SweepRunner interface {
	Run(ctx context.Context) (*settlement.SweepSummary, error)
}

// SweepSchedulerConfig holds configuration for the in-process sweep scheduler
type SweepSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SweepInterval is how often sweeps run
	SweepInterval time.Duration

	// SweepTimeout is the maximum time for a single sweep
	SweepTimeout time.Duration

	// RunOnStart triggers a sweep shortly after startup instead of waiting a full interval
	RunOnStart bool

	// InitialDelay is the delay before the startup sweep when RunOnStart is set
	InitialDelay time.Duration
}

// DefaultSweepSchedulerConfig returns default configuration
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Enabled:       false,
		SweepInterval: 24 * time.Hour,
		SweepTimeout:  30 * time.Minute,
		RunOnStart:    false,
		InitialDelay:  time.Minute,
	}
}

// SweepScheduler periodically runs settlement sweeps in-process.
// Deployments that trigger sweeps through the cron endpoints leave it disabled.
type SweepScheduler struct {
	runner    SweepRunner
	logger    *zap.Logger
	config    SweepSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(runner SweepRunner, logger *zap.Logger, config SweepSchedulerConfig) *SweepScheduler {
	return &SweepScheduler{
		runner: runner,
		logger: logger,
		config: config,
	}
}

// Start starts the sweep scheduler
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sweep scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("sweep_timeout", s.config.SweepTimeout),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler loop is active
func (s *SweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// runLoop runs sweeps at the configured interval
func (s *SweepScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.config.InitialDelay):
			s.executeSweep(ctx)
		}
	}

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs one sweep with a timeout
func (s *SweepScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	start := time.Now()
	summary, err := s.runner.Run(sweepCtx)
	if err != nil {
		s.logger.Error("Scheduled sweep failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return
	}

	s.logger.Info("Scheduled sweep complete",
		zap.Int("processed", summary.Processed),
		zap.Int("approved", summary.Approved),
		zap.Int("rejected", summary.Rejected),
		zap.Int("retries_triggered", summary.RetriesTriggered),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
