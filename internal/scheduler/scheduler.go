package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

type Job func(ctx context.Context) error

// Scheduler runs a single job right away and then once per interval. A run
// that is still going when the next tick arrives delays that tick instead of
// overlapping with it.
type Scheduler struct {
	scheduler *gocron.Scheduler
	name      string
	interval  time.Duration
	job       Job
	cancel    context.CancelFunc
}

func New(name string, interval time.Duration, job Job) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		name:      name,
		interval:  interval,
		job:       job,
	}
}

// Start schedules the job and returns without waiting for the first run.
// Runs receive a context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler %s: interval must be positive, got %s", s.name, s.interval)
	}
	if s.cancel != nil {
		return errors.New("scheduler " + s.name + " already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.scheduler.
		Every(s.interval).
		SingletonMode().
		Name(s.name).
		Do(s.run, ctx)
	if err != nil {
		s.cancel()
		s.cancel = nil
		return fmt.Errorf("scheduler %s: %w", s.name, err)
	}

	s.scheduler.StartAsync()

	log.Info().
		Str("job", s.name).
		Dur("interval", s.interval).
		Msg("scheduler started")

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if err := s.job(ctx); err != nil {
		log.Error().Err(err).Str("job", s.name).Msg("scheduled run failed")
		return
	}

	log.Debug().Str("job", s.name).Msg("scheduled run completed")
}

// Stop cancels the context of the running job and waits for the scheduler to
// shut down.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	s.scheduler.Stop()

	log.Info().Str("job", s.name).Msg("scheduler stopped")
}
