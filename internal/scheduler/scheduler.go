// Package scheduler recomputes produced results on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/pipeline"
)

const defaultTimeout = 30 * time.Minute

// Runner executes a pipeline run; *pipeline.Runner implements it.
type Runner interface {
	Run(ctx context.Context, src pipeline.Source) (*pipeline.Outcome, error)
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	source  pipeline.Source
	timeout time.Duration
	entry   cron.EntryID
}

// New schedules runs of src with a standard five-field cron spec. Runs never
// overlap: a tick that fires while the previous run is busy is skipped.
func New(spec string, runner Runner, src pipeline.Source, timeout time.Duration) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cronLogger{log.With().Str("component", "scheduler").Logger()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		runner:  runner,
		source:  src,
		timeout: timeout,
	}

	id, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = id

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Str("source", s.source.Name()).Time("next", s.Next()).Msg("scheduler started")
}

// Stop prevents new runs and waits for a running one, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next is the time of the next scheduled run; zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce performs one run bounded by the scheduler's timeout.
func (s *Scheduler) RunOnce(ctx context.Context) (*pipeline.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	outcome, err := s.runner.Run(ctx, s.source)
	if err != nil {
		log.Error().Err(err).Str("source", s.source.Name()).Msg("scheduled run failed")
		return nil, err
	}

	log.Info().
		Str("source", s.source.Name()).
		Int("days", len(outcome.Results)).
		Dur("took", time.Since(start)).
		Msg("scheduled run completed")
	return outcome, nil
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
