package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/domain"
	"github.com/andresuchdata/produced-go/internal/gaps"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/reconcile"
	"github.com/andresuchdata/produced-go/internal/tabular"
)

// RunTracker records run lifecycle; *Repository implements it.
type RunTracker interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
}

// ResultStore persists computed days.
type ResultStore interface {
	SaveDailyResults(ctx context.Context, runID *int64, days []domain.ProducedDay) error
}

// CacheInvalidator drops cached read models after new results land.
type CacheInvalidator interface {
	InvalidateProduced(ctx context.Context) error
}

// Runner is the single path from raw exports to stored results.
type Runner struct {
	calc      *produced.Calculator
	reconcile []reconcile.Option
	missing   gaps.Strategy

	tracker  RunTracker
	store    ResultStore
	cache    CacheInvalidator
	exporter *Exporter
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithReconcileOptions(opts ...reconcile.Option) RunnerOption {
	return func(r *Runner) { r.reconcile = append(r.reconcile, opts...) }
}

func WithMissingStrategy(s gaps.Strategy) RunnerOption {
	return func(r *Runner) { r.missing = s }
}

func WithTracker(t RunTracker) RunnerOption {
	return func(r *Runner) { r.tracker = t }
}

func WithStore(s ResultStore) RunnerOption {
	return func(r *Runner) { r.store = s }
}

func WithCache(c CacheInvalidator) RunnerOption {
	return func(r *Runner) { r.cache = c }
}

func WithExporter(e *Exporter) RunnerOption {
	return func(r *Runner) { r.exporter = e }
}

// NewRunner builds a Runner around a calculator.
func NewRunner(calc *produced.Calculator, opts ...RunnerOption) *Runner {
	r := &Runner{
		calc:    calc,
		missing: gaps.Strategy{Kind: gaps.StrategyFail},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Calculator exposes the runner's calculator.
func (r *Runner) Calculator() *produced.Calculator {
	return r.calc
}

// Snapshots resolves blank stock cells and reconciles the three exports.
func (r *Runner) Snapshots(in Inputs) ([]produced.DailySnapshot, error) {
	if in.Stock == nil || in.Packed == nil || in.Truck == nil {
		return nil, fmt.Errorf("stock, packed and truck exports are all required")
	}

	missing := r.MissingStock(in.Stock)
	if len(missing) > 0 {
		log.Warn().Int("cells", len(missing)).Str("strategy", r.missing.String()).Msg("stock export has blank cells")
	}
	if err := gaps.Resolve(in.Stock, missing, r.missing); err != nil {
		return nil, err
	}

	return reconcile.Reconcile(in.Stock, in.Packed, in.Truck, r.reconcile...)
}

// MissingStock lists the blank registry cells of a stock export, labelled by
// the row's timestamp cell.
func (r *Runner) MissingStock(stock *tabular.Table) []gaps.Missing {
	cols := r.stockColumns(stock)
	if len(cols) == 0 {
		return nil
	}
	label, _ := reconcile.FindTimestampColumn(stock)
	return gaps.Detect(stock, label, cols...)
}

// stockColumns lists the registry columns present in the stock export.
func (r *Runner) stockColumns(stock *tabular.Table) []string {
	var cols []string
	for _, t := range r.calc.Registry() {
		for _, c := range []string{t.PlatoColumn(), t.LevelColumn(), t.MaterialColumn()} {
			if stock.Has(c) {
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// Compute reconciles and calculates without side effects.
func (r *Runner) Compute(ctx context.Context, in Inputs) ([]produced.DailyResult, error) {
	snapshots, err := r.Snapshots(in)
	if err != nil {
		return nil, err
	}
	return r.calc.Run(ctx, snapshots)
}

// Run fetches src, computes results, then exports, stores and invalidates
// caches as configured. A failed run leaves no stored days and no exports.
func (r *Runner) Run(ctx context.Context, src Source) (*Outcome, error) {
	run := &Run{
		Source:    src.Name(),
		Status:    StatusProcessing,
		StartedAt: time.Now(),
	}
	if r.tracker != nil {
		if err := r.tracker.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
	}

	outcome, err := r.execute(ctx, src, run)
	r.finish(ctx, run, outcome, err)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (r *Runner) execute(ctx context.Context, src Source, run *Run) (*Outcome, error) {
	logger := log.With().Str("source", src.Name()).Logger()

	in, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}

	results, err := r.Compute(ctx, in)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("days", len(results)).Msg("produced computed")

	outcome := &Outcome{Results: results}
	if run.ID != 0 {
		id := run.ID
		outcome.RunID = &id
	}

	// Exports go out before the store so a failed store can take them back.
	if r.exporter != nil {
		files, err := r.exporter.Export(ctx, results, run.StartedAt)
		if err != nil {
			return nil, err
		}
		outcome.Files = files
	}

	if r.store != nil {
		days := make([]domain.ProducedDay, len(results))
		for i, res := range results {
			days[i] = domain.FromResult(res)
		}
		if err := r.store.SaveDailyResults(ctx, outcome.RunID, days); err != nil {
			if r.exporter != nil {
				r.exporter.Discard(ctx, outcome.Files)
			}
			return nil, fmt.Errorf("failed to store results: %w", err)
		}
	}

	if r.cache != nil {
		if err := r.cache.InvalidateProduced(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate produced cache")
		}
	}

	return outcome, nil
}

func (r *Runner) finish(ctx context.Context, run *Run, outcome *Outcome, runErr error) {
	now := time.Now()
	run.CompletedAt = &now

	if runErr != nil {
		run.Status = StatusFailed
		run.ErrorMessage = runErr.Error()
		log.Error().Err(runErr).Str("source", run.Source).Msg("produced run failed")
	} else {
		run.Status = StatusCompleted
		run.Days = len(outcome.Results)
		if run.Days > 0 {
			first, last := outcome.Results[0].Date, outcome.Results[run.Days-1].Date
			run.FirstDate, run.LastDate = &first, &last
		}
	}

	if r.tracker == nil {
		return
	}
	// The caller's context may already be cancelled; the run record still
	// needs its final state.
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.tracker.UpdateRun(uctx, run); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to update run")
	}
}
