package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/produced-go/internal/domain"
)

type producedRepository struct {
	db *DB
}

func NewProducedRepository(db *DB) *producedRepository {
	return &producedRepository{db: db}
}

const upsertDailyResult = `
	INSERT INTO produced_daily_results (
		date, label, packed_ow1, packed_rgb, packed_ow2, packed_keg, packed_total,
		truck1_level, truck1_plato, truck1_hl_std, truck2_level, truck2_plato, truck2_hl_std,
		truck_total, stock_start, stock_end, stock_delta, produced, tanks, run_id, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
	ON CONFLICT (date)
	DO UPDATE SET
		label = EXCLUDED.label,
		packed_ow1 = EXCLUDED.packed_ow1,
		packed_rgb = EXCLUDED.packed_rgb,
		packed_ow2 = EXCLUDED.packed_ow2,
		packed_keg = EXCLUDED.packed_keg,
		packed_total = EXCLUDED.packed_total,
		truck1_level = EXCLUDED.truck1_level,
		truck1_plato = EXCLUDED.truck1_plato,
		truck1_hl_std = EXCLUDED.truck1_hl_std,
		truck2_level = EXCLUDED.truck2_level,
		truck2_plato = EXCLUDED.truck2_plato,
		truck2_hl_std = EXCLUDED.truck2_hl_std,
		truck_total = EXCLUDED.truck_total,
		stock_start = EXCLUDED.stock_start,
		stock_end = EXCLUDED.stock_end,
		stock_delta = EXCLUDED.stock_delta,
		produced = EXCLUDED.produced,
		tanks = EXCLUDED.tanks,
		run_id = EXCLUDED.run_id,
		updated_at = NOW()
`

func (r *producedRepository) SaveDailyResults(ctx context.Context, runID *int64, days []domain.ProducedDay) error {
	if len(days) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertDailyResult)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, d := range days {
			_, err := stmt.ExecContext(
				ctx,
				d.Date, d.Label,
				d.PackedOW1, d.PackedRGB, d.PackedOW2, d.PackedKEG, d.PackedTotal,
				d.Truck1Level, d.Truck1Plato, d.Truck1HLStd,
				d.Truck2Level, d.Truck2Plato, d.Truck2HLStd,
				d.TruckTotal, d.StockStart, d.StockEnd, d.StockDelta, d.Produced,
				d.Tanks, runID,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert result for %s: %w", d.Date.Format("2006-01-02"), err)
			}
		}

		return nil
	})
}

func (r *producedRepository) ListDailyResults(ctx context.Context, dr domain.DateRange) ([]domain.ProducedDay, error) {
	where, args := rangeFilter(dr)
	query := `
		SELECT date, label, packed_ow1, packed_rgb, packed_ow2, packed_keg, packed_total,
		       truck1_level, truck1_plato, truck1_hl_std, truck2_level, truck2_plato, truck2_hl_std,
		       truck_total, stock_start, stock_end, stock_delta, produced, tanks, run_id, updated_at
		FROM produced_daily_results
	` + where + `
		ORDER BY date ASC
	`

	var days []domain.ProducedDay
	if err := sqlx.SelectContext(ctx, r.db, &days, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list daily results: %w", err)
	}

	return days, nil
}

func (r *producedRepository) DeleteDailyResults(ctx context.Context, dr domain.DateRange) (int64, error) {
	where, args := rangeFilter(dr)

	res, err := r.db.ExecContext(ctx, `DELETE FROM produced_daily_results `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete daily results: %w", err)
	}
	return res.RowsAffected()
}

// rangeFilter builds the WHERE clause for an optional date range.
func rangeFilter(dr domain.DateRange) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if !dr.From.IsZero() {
		args = append(args, dr.From)
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !dr.To.IsZero() {
		args = append(args, dr.To)
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
