package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/produced-go/internal/api/handlers"
	"github.com/andresuchdata/produced-go/internal/api/middleware"
	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/service"
)

type Services struct {
	Produced *service.ProducedService
	Runs     handlers.RunStore
	// RunSource is recomputed by POST /runs; nil disables the route.
	RunSource pipeline.Source
	// Drive serves /api/drive/*; nil when Drive is not configured.
	Drive http.Handler
	// Ping checks the database for /health.
	Ping func(ctx context.Context) error
}

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	var ping func(ctx context.Context) error
	if services != nil {
		ping = services.Ping
	}
	router.GET("/health", health(ping))

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", health(ping))

	if services == nil {
		return router
	}

	if services.Produced != nil {
		producedHandler := handlers.NewProducedHandler(services.Produced)
		producedGroup := apiGroup.Group("/produced")
		{
			producedGroup.GET("/daily", producedHandler.GetDaily)
			producedGroup.DELETE("/daily", producedHandler.DeleteDaily)
			producedGroup.GET("/daily/:date/breakdown", producedHandler.GetBreakdown)
			producedGroup.GET("/summary", producedHandler.GetSummary)
			producedGroup.GET("/weekly", producedHandler.GetWeekly)
			producedGroup.GET("/export", producedHandler.Export)
			producedGroup.GET("/materials", producedHandler.GetMaterials)
			producedGroup.GET("/hlstd", producedHandler.GetHLStd)
			producedGroup.POST("/calculate", middleware.BodyLimit(opts.MaxUploadBytes), producedHandler.Calculate)
		}

		if services.Runs != nil {
			runsHandler := handlers.NewRunsHandler(services.Produced, services.Runs, services.RunSource)
			runsGroup := producedGroup.Group("/runs")
			{
				runsGroup.GET("", runsHandler.ListRuns)
				runsGroup.GET("/stats", runsHandler.GetStats)
				runsGroup.GET("/:id", runsHandler.GetRun)
				if runsHandler.CanTrigger() {
					runsGroup.POST("", runsHandler.Trigger)
				}
			}
		}
	}

	if services.Drive != nil {
		router.Any("/api/drive/*path", gin.WrapH(services.Drive))
	}

	return router
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
