package main

import (
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/produced-go/internal/gaps"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("produced failed")
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad input data and 1 for everything else.
func exitCode(err error) int {
	var (
		invalid  *produced.InvalidReadingError
		material *produced.UnknownMaterialError
		columns  *produced.MissingColumnsError
		missing  *gaps.MissingValuesError
	)
	if errors.As(err, &invalid) || errors.As(err, &material) ||
		errors.As(err, &columns) || errors.As(err, &missing) {
		return 2
	}
	return 1
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "produced",
		Usage: "Compute daily Produced volumes from stock, packaging and truck exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (console or json)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "Material profile (standard or report)",
				EnvVars: []string{"MATERIAL_PROFILE"},
			},
			&cli.StringFlag{
				Name:    "material-overrides",
				Usage:   "Extra material entries, e.g. 18=11.68,40=11.2",
				EnvVars: []string{"MATERIAL_OVERRIDES"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Concurrent stock aggregations",
				EnvVars: []string{"APP_WORKERS"},
			},
			&cli.StringFlag{
				Name:    "missing",
				Usage:   "Blank stock cells: fail, zero, default=<v> or ffill",
				EnvVars: []string{"APP_MISSING_STRATEGY"},
			},
			&cli.BoolFlag{
				Name:    "accept-timestamp-fallback",
				Usage:   "Use the first column as timestamp when no known timestamp column exists",
				EnvVars: []string{"APP_ACCEPT_TIMESTAMP_FALLBACK"},
			},
			&cli.StringFlag{
				Name:    "date-order",
				Usage:   "How to read ambiguous nn/nn/yyyy dates: dmy or mdy",
				EnvVars: []string{"APP_DATE_ORDER"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Compute every day of the exports and write the results",
				Flags:  append(inputFlags(), outputFlags()...),
				Action: runCommand,
			},
			{
				Name:      "day",
				Usage:     "Explain how one day's Produced figure is made up",
				ArgsUsage: "YYYY-MM-DD | ROW",
				Flags:     inputFlags(),
				Action:    dayCommand,
			},
			{
				Name:  "hlstd",
				Usage: "Standardise one reading to hl at the material's standard degree",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "volume", Required: true, Usage: "Volume in hl"},
					&cli.StringFlag{Name: "plato", Required: true, Usage: "Degree Plato"},
					&cli.StringFlag{Name: "material", Required: true, Usage: "Material code"},
				},
				Action: hlstdCommand,
			},
			{
				Name:   "missing",
				Usage:  "List blank cells of the stock export",
				Flags:  inputFlags(),
				Action: missingCommand,
			},
			{
				Name:   "materials",
				Usage:  "Print the active material table",
				Action: materialsCommand,
			},
			{
				Name:   "migrate",
				Usage:  "Create the database tables",
				Action: migrateCommand,
			},
		},
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Usage:   "Where exports come from: local, storage or drive",
			Value:   "local",
			EnvVars: []string{"PRODUCED_SOURCE"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "Directory holding the exports (local source)",
			EnvVars: []string{"APP_DATA_DIR"},
		},
		&cli.StringFlag{Name: "stock", Usage: "Stock export path"},
		&cli.StringFlag{Name: "packed", Usage: "Packaging export path"},
		&cli.StringFlag{Name: "truck", Usage: "Truck export path"},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory",
			EnvVars: []string{"APP_OUTPUT_DIR"},
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Comma separated export formats: csv, xlsx, pdf",
			Value: "csv",
		},
		&cli.BoolFlag{
			Name:  "decimal-comma",
			Usage: "Write CSV numbers with a decimal comma and ';' separators",
		},
		&cli.IntFlag{
			Name:  "precision",
			Usage: "Decimals in text exports; -1 keeps full precision",
			Value: -1,
		},
		&cli.BoolFlag{
			Name:  "store",
			Usage: "Store results and the run record in the database",
		},
	}
}
