package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rivalworks/rivalaudit/internal/logger"
)

// DefaultSweepInterval is how often expired records are purged.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically deletes expired audit records and their evidence.
type Sweeper struct {
	manager  *Manager
	log      logger.Interface
	cron     *cron.Cron
	interval time.Duration
}

// NewSweeper creates a sweeper. A non-positive interval uses the default.
func NewSweeper(manager *Manager, log logger.Interface, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		manager:  manager,
		log:      log,
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		interval: interval,
	}
}

// Start schedules the sweep and runs one immediately so stale records from
// before a restart are removed without waiting a full interval.
func (s *Sweeper) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.sweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule cleanup sweep: %w", err)
	}

	s.cron.Start()
	s.log.Info("cleanup sweeper started", "interval", s.interval.String())

	go s.sweep(ctx)
	return nil
}

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("cleanup sweeper stopped")
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.manager.Cleanup(ctx); err != nil {
		s.log.Error("cleanup sweep failed", "error", err.Error())
	}
}
