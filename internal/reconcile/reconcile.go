// Package reconcile aligns the daily stock export with the hourly packaging
// and truck exports on one daily calendar.
package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/tabular"
)

// Source names used in errors and logs.
const (
	SourceStock  = "stock"
	SourcePacked = "packed"
	SourceTruck  = "truck"
)

// ConfirmFunc decides whether a source's first column may stand in for a
// timestamp column that could not be found by name.
type ConfirmFunc func(source, column string) bool

// Reconciler merges the three sources.
type Reconciler struct {
	confirm ConfirmFunc
	layouts []string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithConfirmFallback installs the first-column fallback hook. Without it the
// fallback is always refused.
func WithConfirmFallback(fn ConfirmFunc) Option {
	return func(r *Reconciler) {
		r.confirm = fn
	}
}

// AcceptFallback approves every first-column fallback.
func AcceptFallback(string, string) bool { return true }

// WithTimeLayouts prepends layouts to the default timestamp layouts.
func WithTimeLayouts(layouts ...string) Option {
	return func(r *Reconciler) {
		r.layouts = append(append([]string(nil), layouts...), r.layouts...)
	}
}

// New builds a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{layouts: append([]string(nil), defaultLayouts...)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile is New(opts...).Reconcile(stock, packed, truck).
func Reconcile(stock, packed, truck *tabular.Table, opts ...Option) ([]produced.DailySnapshot, error) {
	return New(opts...).Reconcile(stock, packed, truck)
}

// Reconcile produces one snapshot per stock row, in stock order, with the
// day's packaging and truck aggregates joined in. Days without packaging or
// truck activity get zeros.
func (r *Reconciler) Reconcile(stock, packed, truck *tabular.Table) ([]produced.DailySnapshot, error) {
	packedDaily, err := r.Packed(packed)
	if err != nil {
		return nil, err
	}
	truckDaily, err := r.Trucks(truck)
	if err != nil {
		return nil, err
	}

	timeIdx, err := r.timestampColumn(SourceStock, stock)
	if err != nil {
		return nil, err
	}
	timeCol := stock.Header[timeIdx]

	packedByDate := make(map[time.Time]produced.PackedLines, len(packedDaily))
	for _, d := range packedDaily {
		packedByDate[d.Date] = d.Lines
	}
	truckByDate := make(map[time.Time][2]produced.TruckReading, len(truckDaily))
	for _, d := range truckDaily {
		truckByDate[d.Date] = d.Trucks
	}

	snapshots := make([]produced.DailySnapshot, 0, stock.Len())
	for i := range stock.Rows {
		label := stock.Value(i, timeCol)
		date, err := r.parseDate(label)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SourceStock, i+2, err)
		}
		snapshots = append(snapshots, produced.DailySnapshot{
			Date:   date,
			Label:  label,
			Values: stock.Record(i),
			Packed: packedByDate[date],
			Trucks: truckByDate[date],
		})
	}

	log.Debug().
		Int("stock_days", len(snapshots)).
		Int("packed_days", len(packedDaily)).
		Int("truck_days", len(truckDaily)).
		Msg("sources reconciled")

	return snapshots, nil
}

// DailyPacked is one day of summed packaging counters.
type DailyPacked struct {
	Date  time.Time
	Lines produced.PackedLines
}

// DailyTrucks is one day of truck transfers: levels summed, Plato averaged.
type DailyTrucks struct {
	Date   time.Time
	Trucks [2]produced.TruckReading
}

// Packed sums the hourly packaging counters per calendar date.
func (r *Reconciler) Packed(t *tabular.Table) ([]DailyPacked, error) {
	cols, dates, err := r.prepare(SourcePacked, t, packedFields)
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]*DailyPacked)
	for i, date := range dates {
		d, ok := byDate[date]
		if !ok {
			d = &DailyPacked{Date: date}
			byDate[date] = d
		}
		for _, target := range []struct {
			column string
			dst    *float64
		}{
			{PackedOW1, &d.Lines.OW1},
			{PackedRGB, &d.Lines.RGB},
			{PackedOW2, &d.Lines.OW2},
			{PackedKEG, &d.Lines.KEG},
		} {
			v, ok, err := number(t, i, cols[target.column], SourcePacked)
			if err != nil {
				return nil, err
			}
			if ok {
				*target.dst += v
			}
		}
	}

	out := make([]DailyPacked, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Trucks sums hourly truck levels and averages hourly Plato per calendar date.
// Blank cells are left out of both the sum and the mean.
func (r *Reconciler) Trucks(t *tabular.Table) ([]DailyTrucks, error) {
	cols, dates, err := r.prepare(SourceTruck, t, truckFields)
	if err != nil {
		return nil, err
	}

	type acc struct {
		level      [2]float64
		platoSum   [2]float64
		platoCount [2]int
	}
	byDate := make(map[time.Time]*acc)
	for i, date := range dates {
		a, ok := byDate[date]
		if !ok {
			a = &acc{}
			byDate[date] = a
		}
		for n, names := range [2][2]string{{Truck1Level, Truck1Plato}, {Truck2Level, Truck2Plato}} {
			level, ok, err := number(t, i, cols[names[0]], SourceTruck)
			if err != nil {
				return nil, err
			}
			if ok {
				a.level[n] += level
			}
			plato, ok, err := number(t, i, cols[names[1]], SourceTruck)
			if err != nil {
				return nil, err
			}
			if ok {
				a.platoSum[n] += plato
				a.platoCount[n]++
			}
		}
	}

	out := make([]DailyTrucks, 0, len(byDate))
	for date, a := range byDate {
		d := DailyTrucks{Date: date}
		for n := range d.Trucks {
			d.Trucks[n].Level = a.level[n]
			if a.platoCount[n] > 0 {
				d.Trucks[n].Plato = a.platoSum[n] / float64(a.platoCount[n])
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// prepare resolves a source's columns and parses every row's date.
func (r *Reconciler) prepare(source string, t *tabular.Table, fields []field) (map[string]int, []time.Time, error) {
	if t == nil {
		return nil, nil, fmt.Errorf("%s: no table", source)
	}

	timeIdx, err := r.timestampColumn(source, t)
	if err != nil {
		return nil, nil, err
	}

	// Every field is required; a missing one would silently read as 0.
	cols := resolve(t, fields)
	for _, f := range fields {
		if cols[f.canonical] < 0 {
			return nil, nil, &produced.MissingColumnsError{
				Source:   source,
				Required: f.aliases,
				Found:    t.Header,
			}
		}
	}

	dates := make([]time.Time, len(t.Rows))
	for i, row := range t.Rows {
		raw := ""
		if timeIdx < len(row) {
			raw = row[timeIdx]
		}
		date, err := r.parseDate(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: column %q: %w", source, i+2, t.Header[timeIdx], err)
		}
		dates[i] = date
	}

	return cols, dates, nil
}

// FindTimestampColumn returns the first timestamp candidate present in t.
func FindTimestampColumn(t *tabular.Table) (string, bool) {
	for _, name := range TimestampCandidates {
		if t.Has(name) {
			return name, true
		}
	}
	return "", false
}

// timestampColumn finds the timestamp column by name. Failing that, the first
// column is offered to the confirm hook.
func (r *Reconciler) timestampColumn(source string, t *tabular.Table) (int, error) {
	for _, name := range TimestampCandidates {
		if i := t.Index(name); i >= 0 {
			return i, nil
		}
	}

	if len(t.Header) == 0 {
		return -1, &produced.MissingColumnsError{Source: source, Required: TimestampCandidates}
	}

	first := t.Header[0]
	log.Warn().Str("source", source).Str("column", first).Msg("timestamp column not found, first column is the only candidate")

	if r.confirm == nil || !r.confirm(source, first) {
		return -1, &produced.MissingColumnsError{
			Source:   source,
			Required: TimestampCandidates,
			Found:    t.Header,
		}
	}

	log.Warn().Str("source", source).Str("column", first).Msg("using first column as timestamp")
	return 0, nil
}

// number reads a numeric cell. Blank cells report ok=false.
func number(t *tabular.Table, row, col int, source string) (float64, bool, error) {
	if col < 0 || col >= len(t.Rows[row]) {
		return 0, false, nil
	}
	raw := t.Rows[row][col]
	if tabular.IsBlank(raw) {
		return 0, false, nil
	}
	v, err := produced.ParseValue(strings.TrimSpace(t.Header[col]), raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s row %d: %w", source, row+2, err)
	}
	return v, true, nil
}
