// Package app wires configuration into the pipeline for the binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/cache"
	"github.com/andresuchdata/produced-go/internal/config"
	"github.com/andresuchdata/produced-go/internal/drive"
	"github.com/andresuchdata/produced-go/internal/gaps"
	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/reconcile"
	"github.com/andresuchdata/produced-go/internal/report"
	"github.com/andresuchdata/produced-go/internal/repository/postgres"
	"github.com/andresuchdata/produced-go/internal/storage"
)

// Source names accepted by SCHEDULE_SOURCE and --source.
const (
	SourceLocal   = "local"
	SourceStorage = "storage"
	SourceDrive   = "drive"
)

// Calculator builds the calculator from the material profile, overrides and
// worker count.
func Calculator(cfg config.AppConfig) (*produced.Calculator, error) {
	materials, err := cfg.Materials()
	if err != nil {
		return nil, err
	}
	return produced.NewCalculator(
		produced.WithMaterials(materials),
		produced.WithWorkers(cfg.Workers),
	), nil
}

// RunnerOptions maps the app config onto runner options.
func RunnerOptions(cfg config.AppConfig) ([]pipeline.RunnerOption, error) {
	strategy, err := gaps.ParseStrategy(cfg.MissingStrategy)
	if err != nil {
		return nil, err
	}

	order, err := reconcile.ParseDateOrder(cfg.DateOrder)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.RunnerOption{
		pipeline.WithMissingStrategy(strategy),
		pipeline.WithReconcileOptions(reconcile.WithDateOrder(order)),
	}
	if cfg.AcceptFallback {
		opts = append(opts, pipeline.WithReconcileOptions(reconcile.WithConfirmFallback(reconcile.AcceptFallback)))
	}
	return opts, nil
}

// Deps holds the optional backends a process connects to.
type Deps struct {
	DB      *postgres.DB
	RunDB   *sql.DB
	Cache   cache.ProducedCache
	Storage storage.ObjectStorage
	Drive   *drive.Service
}

// Connect opens the database pools and every backend enabled in cfg.
func Connect(ctx context.Context, cfg *config.Config) (*Deps, error) {
	deps := &Deps{}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.DB = db

	// Run tracking goes through database/sql on the pgx driver.
	runDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}
	if err := runDB.PingContext(ctx); err != nil {
		runDB.Close()
		deps.Close()
		return nil, fmt.Errorf("failed to ping run database: %w", err)
	}
	deps.RunDB = runDB

	if deps.Cache, err = cache.NewProducedCache(cfg.Cache); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, caching disabled")
		deps.Cache = cache.NewNoopProducedCache()
	}

	if err := deps.connectRemote(ctx, cfg); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

// ConnectRemote opens only object storage and Drive, for processes without a
// database.
func ConnectRemote(ctx context.Context, cfg *config.Config) (*Deps, error) {
	deps := &Deps{Cache: cache.NewNoopProducedCache()}
	if err := deps.connectRemote(ctx, cfg); err != nil {
		return nil, err
	}
	return deps, nil
}

func (d *Deps) connectRemote(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Enabled {
		s, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		d.Storage = s
	}

	if cfg.Drive.Enabled {
		svc, err := drive.NewServiceFromFile(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Drive service: %w", err)
		}
		d.Drive = svc
	}
	return nil
}

func (d *Deps) Close() {
	if d.RunDB != nil {
		if err := d.RunDB.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close run database")
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
}

// Source builds the named export source.
func Source(name string, cfg *config.Config, deps *Deps) (pipeline.Source, error) {
	app := cfg.App
	switch strings.ToLower(name) {
	case "", SourceLocal:
		return pipeline.LocalSource{Dir: app.DataDir, Stock: app.StockFile, Packed: app.PackedFile, Truck: app.TruckFile}, nil
	case SourceStorage, "minio", "s3":
		if deps == nil || deps.Storage == nil {
			return nil, errors.New("object storage is not enabled (STORAGE_ENABLED)")
		}
		return &storage.Source{
			Storage: deps.Storage,
			Prefix:  cfg.Storage.Prefix,
			Stock:   app.StockFile,
			Packed:  app.PackedFile,
			Truck:   app.TruckFile,
		}, nil
	case SourceDrive:
		if deps == nil || deps.Drive == nil {
			return nil, errors.New("google drive is not enabled (DRIVE_ENABLED)")
		}
		return DriveSource(cfg, deps.Drive), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want %s, %s or %s)", name, SourceLocal, SourceStorage, SourceDrive)
	}
}

// DriveSource reads the configured Drive folder through files.
func DriveSource(cfg *config.Config, files drive.Files) *drive.Source {
	return &drive.Source{
		Files:    files,
		FolderID: cfg.Drive.FolderID,
		Stock:    cfg.App.StockFile,
		Packed:   cfg.App.PackedFile,
		Truck:    cfg.App.TruckFile,
	}
}

// Exporter writes kinds under the output dir and uploads them when object
// storage is connected.
func Exporter(cfg *config.Config, deps *Deps, kinds []string, f report.Format) *pipeline.Exporter {
	e := &pipeline.Exporter{Dir: cfg.App.OutputDir, Kinds: kinds, Format: f}
	if deps != nil && deps.Storage != nil {
		e.Uploader = deps.Storage
		e.Prefix = cfg.Storage.Prefix
	}
	return e
}
