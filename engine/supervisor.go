package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is the supervisor's default pending-queue poll
// cadence, per spec.md §4.7.
const DefaultPollInterval = 500 * time.Millisecond

// Supervisor polls the pending-run queue and hands each run to a Runner.
// Concurrent runs are independent; it starts one goroutine per pending run
// it finds, rather than running them one at a time, so a slow run never
// delays others.
type Supervisor struct {
	runner       *Runner
	pollInterval time.Duration
	log          *logrus.Entry
}

// NewSupervisor creates a Supervisor over runner, polling at interval (or
// DefaultPollInterval if zero).
func NewSupervisor(runner *Runner, interval time.Duration, log *logrus.Logger) *Supervisor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Supervisor{runner: runner, pollInterval: interval, log: log.WithField("component", "supervisor")}
}

// Run blocks, polling until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce claims every currently-pending run synchronously (so a run
// never appears in two consecutive polls), then executes each claimed run
// on its own goroutine without waiting for them to finish.
func (s *Supervisor) pollOnce(ctx context.Context) {
	pending, err := s.runner.store.ListPending(ctx)
	if err != nil {
		s.log.WithError(err).Error("list pending runs")
		return
	}
	for _, p := range pending {
		run, graph, err := s.runner.Claim(ctx, p.ID)
		if err != nil {
			s.log.WithError(err).WithField("run_id", p.ID).Error("claim run")
			continue
		}
		go func() {
			if err := s.runner.runClaimed(ctx, run, graph); err != nil {
				s.log.WithError(err).WithField("run_id", run.ID).Error("execute run")
			}
		}()
	}
}
