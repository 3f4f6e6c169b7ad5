package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"pkt.systems/pslog"

	"github.com/folio-studio/folio-backend/internal/logging"
)

// Job is a unit of scheduled work.
type Job interface {
	Run(ctx context.Context) (*Report, error)
}

// Scheduler runs a Job on a six-field cron spec (seconds first).
type Scheduler struct {
	cron    *cron.Cron
	logger  pslog.Logger
	timeout time.Duration
}

func NewScheduler(logger pslog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		timeout: 10 * time.Minute,
	}
}

// Add registers job under spec. Overlapping runs are skipped.
func (s *Scheduler) Add(spec, name string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		ctx = logging.WithLogger(ctx, s.logger.With("job", name))

		start := time.Now()
		if _, err := job.Run(ctx); err != nil {
			s.logger.Error("maintenance.job.failed", "job", name, "error", err)
			return
		}
		s.logger.Info("maintenance.job.completed", "job", name, "duration_ms", time.Since(start).Milliseconds())
	}))

	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("maintenance.scheduler.started", "jobs", len(s.cron.Entries()))
}

// Stop waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
