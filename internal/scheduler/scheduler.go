package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/config"
)

// WorkflowResumer reruns outflow workflows that stopped before a terminal state.
type WorkflowResumer interface {
	Resume(ctx context.Context, olderThan time.Duration) (int, error)
}

// SessionSweeper evicts idle listing sessions.
type SessionSweeper interface {
	Sweep(ttl time.Duration) int
}

// LedgerExporter copies one day of outflow records to the shared spreadsheet.
type LedgerExporter interface {
	SheetsEnabled() bool
	ExportDaily(ctx context.Context, day time.Time) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.Config
	location *time.Location

	workflows WorkflowResumer
	sessions  SessionSweeper
	ledger    LedgerExporter

	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a new scheduler instance. Schedules are evaluated in the
// configured timezone.
func NewScheduler(cfg config.Config, workflows WorkflowResumer, sessions SessionSweeper, ledger LedgerExporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location := cfg.Location()
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(location)),
		cfg:       cfg,
		location:  location,
		workflows: workflows,
		sessions:  sessions,
		ledger:    ledger,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.Scheduler.WorkflowRecoveryCron, s.resumeWorkflows); err != nil {
		return fmt.Errorf("schedule workflow recovery: %w", err)
	}

	// Listing sessions are swept on the same cadence as workflow recovery.
	if _, err := s.cron.AddFunc(s.cfg.Scheduler.WorkflowRecoveryCron, s.sweepSessions); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}

	if s.ledger != nil && s.ledger.SheetsEnabled() {
		if _, err := s.cron.AddFunc(s.cfg.Scheduler.LedgerExportCron, s.exportLedger); err != nil {
			return fmt.Errorf("schedule ledger export: %w", err)
		}
	} else {
		s.logger.Info("ledger export disabled, no spreadsheet configured")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) resumeWorkflows() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	finished, err := s.workflows.Resume(ctx, s.cfg.Scheduler.WorkflowStaleAfter)
	if err != nil {
		s.logger.Error("workflow recovery failed", zap.Error(err))
		return
	}
	if finished > 0 {
		s.logger.Info("workflow recovery finished", zap.Int("finished", finished))
	}
}

func (s *Scheduler) sweepSessions() {
	if evicted := s.sessions.Sweep(s.cfg.Listing.SessionTTL); evicted > 0 {
		s.logger.Info("idle listing sessions evicted", zap.Int("count", evicted))
	}
}

// exportLedger exports the previous calendar day in the configured timezone.
func (s *Scheduler) exportLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	day := s.now().In(s.location).AddDate(0, 0, -1)
	rows, err := s.ledger.ExportDaily(ctx, day)
	if err != nil {
		s.logger.Error("failed to export ledger", zap.Error(err))
		return
	}
	s.logger.Info("ledger exported", zap.String("day", day.Format("2006-01-02")), zap.Int("rows", rows))
}
