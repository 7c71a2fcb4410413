package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/service"
)

// Reconciler is the evidence reconciliation pass the sweeper schedules.
type Reconciler interface {
	Reconcile(ctx context.Context, grace time.Duration) (*service.SweepReport, error)
}

// EvidenceSweeper periodically removes orphaned evidence blobs.
type EvidenceSweeper struct {
	reconciler Reconciler
	grace      time.Duration
	logger     *zap.Logger

	scheduler *cron.Cron
	mu        sync.Mutex
	running   bool
}

// NewEvidenceSweeper builds a sweeper. An empty schedule disables it.
func NewEvidenceSweeper(reconciler Reconciler, grace time.Duration, logger *zap.Logger) *EvidenceSweeper {
	return &EvidenceSweeper{reconciler: reconciler, grace: grace, logger: logger}
}

// Start registers the job under a standard five-field cron schedule and
// starts the scheduler.
func (s *EvidenceSweeper) Start(schedule string) error {
	if schedule == "" {
		s.logger.Info("evidence sweeper disabled")
		return nil
	}
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(schedule, s.run); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.scheduler.Start()
	s.logger.Info("evidence sweeper started", zap.String("schedule", schedule), zap.Duration("grace", s.grace))
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (s *EvidenceSweeper) Stop() {
	if s.scheduler == nil {
		return
	}
	<-s.scheduler.Stop().Done()
}

// RunOnce performs a single pass. Overlapping passes are skipped.
func (s *EvidenceSweeper) RunOnce(ctx context.Context) (*service.SweepReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	report, err := s.reconciler.Reconcile(ctx, s.grace)
	if err != nil {
		return nil, err
	}
	s.logger.Info("evidence sweep finished",
		zap.Int("removed_blobs", len(report.RemovedBlobs)),
		zap.Int("missing_blobs", len(report.MissingBlobs)),
		zap.Int("skipped_young", report.SkippedYoungBlob))
	return report, nil
}

func (s *EvidenceSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("evidence sweep failed", zap.Error(err))
	}
}
