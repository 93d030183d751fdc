package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/cache"
	"github.com/andresuchdata/produced-go/internal/domain"
	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/report"
	"github.com/andresuchdata/produced-go/internal/repository"
)

// ErrNotFound is returned when a requested day has no stored result.
var ErrNotFound = errors.New("not found")

// ErrUnboundedRange is returned by Purge when from or to is missing.
var ErrUnboundedRange = errors.New("both from and to are required")

type ProducedService struct {
	repo   repository.ProducedRepository
	cache  cache.ProducedCache
	runner *pipeline.Runner
}

func NewProducedService(repo repository.ProducedRepository, cacheImpl cache.ProducedCache, runner *pipeline.Runner) *ProducedService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopProducedCache()
	}
	return &ProducedService{repo: repo, cache: cacheImpl, runner: runner}
}

// Daily returns the stored days within r.
func (s *ProducedService) Daily(ctx context.Context, r domain.DateRange) ([]domain.ProducedDay, error) {
	days, err := s.repo.ListDailyResults(ctx, r)
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = make([]domain.ProducedDay, 0)
	}
	return days, nil
}

func (s *ProducedService) Summary(ctx context.Context, r domain.DateRange) (*report.Summary, error) {
	if summary, ok, err := s.cache.GetSummary(ctx, r); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("produced: cache get summary failed")
	}

	days, err := s.repo.ListDailyResults(ctx, r)
	if err != nil {
		return nil, err
	}
	summary := report.Summarize(domain.Results(days))

	if err := s.cache.SetSummary(ctx, r, &summary); err != nil {
		log.Warn().Err(err).Msg("produced: cache set summary failed")
	}

	return &summary, nil
}

func (s *ProducedService) Weekly(ctx context.Context, r domain.DateRange) ([]report.WeekStats, error) {
	if weeks, ok, err := s.cache.GetWeekly(ctx, r); err == nil && ok {
		return weeks, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("produced: cache get weekly failed")
	}

	days, err := s.repo.ListDailyResults(ctx, r)
	if err != nil {
		return nil, err
	}
	weeks := report.Weekly(domain.Results(days))
	if weeks == nil {
		weeks = make([]report.WeekStats, 0)
	}

	if err := s.cache.SetWeekly(ctx, r, weeks); err != nil {
		log.Warn().Err(err).Msg("produced: cache set weekly failed")
	}

	return weeks, nil
}

// Purge deletes the stored days within r and drops cached aggregates. Both
// bounds are required.
func (s *ProducedService) Purge(ctx context.Context, r domain.DateRange) (int64, error) {
	if r.From.IsZero() || r.To.IsZero() {
		return 0, ErrUnboundedRange
	}

	n, err := s.repo.DeleteDailyResults(ctx, r)
	if err != nil {
		return 0, err
	}
	if err := s.cache.InvalidateProduced(ctx); err != nil {
		log.Warn().Err(err).Msg("produced: cache invalidation failed")
	}
	return n, nil
}

// Breakdown decomposes the stored result of one date, using the previous
// stored day for the opening stock per class.
func (s *ProducedService) Breakdown(ctx context.Context, date time.Time) (*report.DayBreakdown, error) {
	days, err := s.repo.ListDailyResults(ctx, domain.DateRange{From: date.AddDate(0, 0, -1), To: date})
	if err != nil {
		return nil, err
	}

	results := domain.Results(days)
	i, err := report.Find(results, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", date.Format("2006-01-02"), ErrNotFound)
	}

	b, err := report.Breakdown(results, i)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Materials lists the active material table in code order.
func (s *ProducedService) Materials() []domain.Material {
	table := s.runner.Calculator().Materials()
	out := make([]domain.Material, 0, len(table))
	for _, code := range table.Codes() {
		out = append(out, domain.Material{Code: code, StandardDegree: table[code]})
	}
	return out
}

// HLStd standardises a single reading.
func (s *ProducedService) HLStd(volume, plato, material string) (float64, error) {
	return s.runner.Calculator().CalcHLStd(volume, plato, material)
}

// Calculate computes results for uploaded exports without storing them.
func (s *ProducedService) Calculate(ctx context.Context, in pipeline.Inputs) ([]produced.DailyResult, error) {
	return s.runner.Compute(ctx, in)
}

// Recompute runs src through the full pipeline and stores the results.
func (s *ProducedService) Recompute(ctx context.Context, src pipeline.Source) (*pipeline.Outcome, error) {
	return s.runner.Run(ctx, src)
}
