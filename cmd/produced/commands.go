package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/produced-go/internal/app"
	"github.com/andresuchdata/produced-go/internal/config"
	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/report"
	"github.com/andresuchdata/produced-go/internal/repository/postgres"
	"github.com/andresuchdata/produced-go/pkg/logger"
)

const configKey = "config"

// setup loads the configuration and lets global flags override a copy of it.
func setup(c *cli.Context) error {
	loaded := *config.Load()
	cfg := &loaded

	if c.IsSet("profile") {
		cfg.App.MaterialProfile = c.String("profile")
	}
	if c.IsSet("material-overrides") {
		cfg.App.MaterialOverrides = c.String("material-overrides")
	}
	if c.IsSet("workers") {
		cfg.App.Workers = c.Int("workers")
	}
	if c.IsSet("missing") {
		cfg.App.MissingStrategy = c.String("missing")
	}
	if c.IsSet("accept-timestamp-fallback") {
		cfg.App.AcceptFallback = c.Bool("accept-timestamp-fallback")
	}
	if c.IsSet("date-order") {
		cfg.App.DateOrder = c.String("date-order")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	logger.Configure(cfg.Log.Format, os.Stderr)
	logger.SetLevel(cfg.Log.Level)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	cfg, _ := c.App.Metadata[configKey].(*config.Config)
	return cfg
}

// newRunner builds a runner; deps attach persistence when connected.
func newRunner(cfg *config.Config, deps *app.Deps, extra ...pipeline.RunnerOption) (*pipeline.Runner, error) {
	calc, err := app.Calculator(cfg.App)
	if err != nil {
		return nil, err
	}
	opts, err := app.RunnerOptions(cfg.App)
	if err != nil {
		return nil, err
	}
	if deps != nil && deps.DB != nil {
		opts = append(opts,
			pipeline.WithTracker(pipeline.NewRepository(deps.RunDB)),
			pipeline.WithStore(postgres.NewProducedRepository(deps.DB)),
			pipeline.WithCache(deps.Cache),
		)
	}
	return pipeline.NewRunner(calc, append(opts, extra...)...), nil
}

// connect opens what the command needs: the database when storing, remote
// backends when the source is remote.
func connect(ctx context.Context, cfg *config.Config, store bool, source string) (*app.Deps, error) {
	if store {
		deps, err := app.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := deps.DB.Migrate(ctx); err != nil {
			deps.Close()
			return nil, err
		}
		return deps, nil
	}
	if source == app.SourceLocal || source == "" {
		return &app.Deps{}, nil
	}
	return app.ConnectRemote(ctx, cfg)
}

// inputSource picks explicit file paths over the configured source.
func inputSource(c *cli.Context, cfg *config.Config, deps *app.Deps) (pipeline.Source, error) {
	paths := []string{c.String("stock"), c.String("packed"), c.String("truck")}
	set := 0
	for _, p := range paths {
		if p != "" {
			set++
		}
	}
	switch set {
	case 3:
		return pipeline.FileSource{StockPath: paths[0], PackedPath: paths[1], TruckPath: paths[2]}, nil
	case 0:
	default:
		return nil, errors.New("--stock, --packed and --truck must be given together")
	}

	if c.IsSet("data-dir") {
		cfg.App.DataDir = c.String("data-dir")
	}
	return app.Source(c.String("source"), cfg, deps)
}

// compute fetches the exports and calculates without side effects.
func compute(c *cli.Context) ([]produced.DailyResult, error) {
	cfg := configFrom(c)

	deps, err := connect(c.Context, cfg, false, c.String("source"))
	if err != nil {
		return nil, err
	}
	defer deps.Close()
	src, err := inputSource(c, cfg, deps)
	if err != nil {
		return nil, err
	}
	runner, err := newRunner(cfg, nil)
	if err != nil {
		return nil, err
	}

	in, err := src.Fetch(c.Context)
	if err != nil {
		return nil, err
	}
	return runner.Compute(c.Context, in)
}

func runCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("output") {
		cfg.App.OutputDir = c.String("output")
	}

	kinds, err := pipeline.ParseKinds(c.String("format"))
	if err != nil {
		return err
	}
	f := report.Format{Precision: int32(c.Int("precision")), DecimalComma: c.Bool("decimal-comma")}

	deps, err := connect(c.Context, cfg, c.Bool("store"), c.String("source"))
	if err != nil {
		return err
	}
	defer deps.Close()

	src, err := inputSource(c, cfg, deps)
	if err != nil {
		return err
	}
	runner, err := newRunner(cfg, deps, pipeline.WithExporter(app.Exporter(cfg, deps, kinds, f)))
	if err != nil {
		return err
	}

	outcome, err := runner.Run(c.Context, src)
	if err != nil {
		return err
	}

	w := c.App.Writer
	printSummary(w, report.Summarize(outcome.Results), f)
	for _, file := range outcome.Files {
		fmt.Fprintf(w, "wrote %s\n", file)
	}
	if outcome.RunID != nil {
		fmt.Fprintf(w, "stored as run %d\n", *outcome.RunID)
	}
	return nil
}

func dayCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("day needs exactly one argument: a date (YYYY-MM-DD) or a row number")
	}

	results, err := compute(c)
	if err != nil {
		return err
	}

	i, err := report.Find(results, c.Args().First())
	if err != nil {
		return err
	}
	b, err := report.Breakdown(results, i)
	if err != nil {
		return err
	}
	return report.WriteBreakdown(c.App.Writer, b)
}

func hlstdCommand(c *cli.Context) error {
	calc, err := app.Calculator(configFrom(c).App)
	if err != nil {
		return err
	}

	hl, err := calc.CalcHLStd(c.String("volume"), c.String("plato"), c.String("material"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, strconv.FormatFloat(hl, 'f', -1, 64))
	return nil
}

func missingCommand(c *cli.Context) error {
	cfg := configFrom(c)

	deps, err := connect(c.Context, cfg, false, c.String("source"))
	if err != nil {
		return err
	}
	defer deps.Close()
	src, err := inputSource(c, cfg, deps)
	if err != nil {
		return err
	}
	in, err := src.Fetch(c.Context)
	if err != nil {
		return err
	}
	runner, err := newRunner(cfg, nil)
	if err != nil {
		return err
	}

	missing := runner.MissingStock(in.Stock)
	w := c.App.Writer
	if len(missing) == 0 {
		fmt.Fprintln(w, "no blank cells")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tDAY\tCOLUMN")
	for _, m := range missing {
		fmt.Fprintf(tw, "%d\t%s\t%q\n", m.Row+1, m.Label, m.Column)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d blank cells; resolve with --missing zero|default=<v>|ffill\n", len(missing))
	return nil
}

func materialsCommand(c *cli.Context) error {
	table, err := configFrom(c).App.Materials()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tSTANDARD DEGREE")
	for _, code := range table.Codes() {
		fmt.Fprintf(tw, "%d\t%s\n", code, strconv.FormatFloat(table[code], 'f', -1, 64))
	}
	return tw.Flush()
}

func migrateCommand(c *cli.Context) error {
	db, err := postgres.NewDB(&configFrom(c).Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "schema up to date")
	return nil
}

func printSummary(w io.Writer, s report.Summary, f report.Format) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if s.Days == 0 {
		fmt.Fprintln(tw, "no days computed")
		return
	}
	fmt.Fprintf(tw, "Period\t%s .. %s (%d days)\n", s.From.Format("2006-01-02"), s.To.Format("2006-01-02"), s.Days)
	for _, row := range []struct {
		label string
		value float64
	}{
		{"Produced total", s.ProducedTotal},
		{"Produced mean", s.ProducedMean},
		{"Produced min", s.ProducedMin},
		{"Produced max", s.ProducedMax},
		{"Packed total", s.PackedTotal},
		{"Truck total", s.TruckTotal},
		{"Stock start", s.StockStart},
		{"Stock end", s.StockEnd},
	} {
		fmt.Fprintf(tw, "%s\t%s\n", row.label, f.Number(row.value))
	}
}
