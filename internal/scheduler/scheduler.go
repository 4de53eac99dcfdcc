package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named background jobs on cron specs. The app factory
// starts it alongside the HTTP server, as the template did.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// AddJob schedules job under the given cron spec. Failures and panics are
// logged, never fatal.
func (s *Scheduler) AddJob(name, spec string, job func() error) error {
	_, err := s.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled job panicked", "job", name, "error", r)
			}
		}()

		if err := job(); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("scheduled job completed", "job", name)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.logger.Info("scheduled job registered", "job", name, "spec", spec)
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
