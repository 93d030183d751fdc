package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/tabular"
)

// RunStatus represents the current state of a produced run
type RunStatus string

const (
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Run tracks a single execution of the produced pipeline
type Run struct {
	ID           int64      `json:"id"`
	Source       string     `json:"source"`
	Status       RunStatus  `json:"status"`
	Days         int        `json:"days"`
	FirstDate    *time.Time `json:"first_date,omitempty"`
	LastDate     *time.Time `json:"last_date,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Inputs are the three exports a run reconciles
type Inputs struct {
	Stock  *tabular.Table
	Packed *tabular.Table
	Truck  *tabular.Table
}

// Source supplies the exports for a run
type Source interface {
	// Name identifies the source in run records and logs
	Name() string
	Fetch(ctx context.Context) (Inputs, error)
}

// Outcome is what a successful run produced
type Outcome struct {
	RunID   *int64
	Results []produced.DailyResult
	Files   []string // exports written, if any
}
