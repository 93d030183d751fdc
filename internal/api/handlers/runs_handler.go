package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/service"
)

// RunStore reads run history; *pipeline.Repository implements it.
type RunStore interface {
	GetRun(ctx context.Context, id int64) (*pipeline.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*pipeline.Run, error)
	GetRunStats(ctx context.Context, since time.Time) (*pipeline.RunStats, error)
}

type RunsHandler struct {
	service *service.ProducedService
	runs    RunStore
	source  pipeline.Source
}

// NewRunsHandler serves run history. source is what POST /runs recomputes
// from; when nil the endpoint is not registered.
func NewRunsHandler(svc *service.ProducedService, runs RunStore, source pipeline.Source) *RunsHandler {
	return &RunsHandler{service: svc, runs: runs, source: source}
}

func (h *RunsHandler) CanTrigger() bool {
	return h.source != nil
}

func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to list runs")
		return
	}
	if runs == nil {
		runs = make([]*pipeline.Run, 0)
	}

	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (h *RunsHandler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch run")
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetStats summarises runs from the last ?days (default 7).
func (h *RunsHandler) GetStats(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	stats, err := h.runs.GetRunStats(c.Request.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		respondError(c, err, "failed to fetch run stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Trigger recomputes from the configured source and stores the results.
func (h *RunsHandler) Trigger(c *gin.Context) {
	outcome, err := h.service.Recompute(c.Request.Context(), h.source)
	if err != nil {
		respondError(c, err, "run failed")
		return
	}

	resp := gin.H{"days": len(outcome.Results), "files": outcome.Files}
	if outcome.RunID != nil {
		resp["run_id"] = *outcome.RunID
	}
	c.JSON(http.StatusOK, resp)
}
