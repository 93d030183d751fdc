package repository

import (
	"context"

	"github.com/andresuchdata/produced-go/internal/domain"
)

type ProducedRepository interface {
	// SaveDailyResults upserts days by date.
	SaveDailyResults(ctx context.Context, runID *int64, days []domain.ProducedDay) error
	// ListDailyResults returns stored days within r, ordered by date.
	ListDailyResults(ctx context.Context, r domain.DateRange) ([]domain.ProducedDay, error)
	DeleteDailyResults(ctx context.Context, r domain.DateRange) (int64, error)
}
