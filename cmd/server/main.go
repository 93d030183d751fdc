package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/produced-go/internal/api"
	"github.com/andresuchdata/produced-go/internal/app"
	"github.com/andresuchdata/produced-go/internal/config"
	"github.com/andresuchdata/produced-go/internal/drive"
	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/report"
	"github.com/andresuchdata/produced-go/internal/repository/postgres"
	"github.com/andresuchdata/produced-go/internal/scheduler"
	"github.com/andresuchdata/produced-go/internal/service"
	"github.com/andresuchdata/produced-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Configure(cfg.Log.Format, os.Stderr)
	logger.SetLevel(cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	deps, err := app.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	defer deps.Close()

	if err := deps.DB.Migrate(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Pipeline
	calc, err := app.Calculator(cfg.App)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid material configuration")
	}
	opts, err := app.RunnerOptions(cfg.App)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid pipeline configuration")
	}
	runs := pipeline.NewRepository(deps.RunDB)
	results := postgres.NewProducedRepository(deps.DB)
	runner := pipeline.NewRunner(calc, append(opts,
		pipeline.WithTracker(runs),
		pipeline.WithStore(results),
		pipeline.WithCache(deps.Cache),
		pipeline.WithExporter(app.Exporter(cfg, deps, []string{pipeline.ExportCSV, pipeline.ExportXLSX}, report.DefaultFormat)),
	)...)

	// The configured source backs both POST /runs and the schedule.
	source, err := app.Source(cfg.Schedule.Source, cfg, deps)
	if err != nil {
		if cfg.Schedule.Enabled {
			logger.Log.Fatal().Err(err).Msg("Invalid run source")
		}
		logger.Log.Warn().Err(err).Msg("Run source unavailable, POST /runs disabled")
		source = nil
	}

	services := &api.Services{
		Produced:  service.NewProducedService(results, deps.Cache, runner),
		Runs:      runs,
		RunSource: source,
		Ping:      deps.DB.PingContext,
	}
	if deps.Drive != nil {
		services.Drive = drive.NewHandler(app.DriveSource(cfg, deps.Drive), deps.Drive, runner).Router()
	}

	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched, err = scheduler.New(cfg.Schedule.Cron, runner, source, 0)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create scheduler")
		}
		sched.Start()
	}

	router := api.NewRouter(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Scheduled run still busy at shutdown")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
