// Package report turns daily results into exports and statistics.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/produced-go/internal/produced"
)

// Summary is the whole-period statistics block.
type Summary struct {
	Days          int       `json:"days"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	ProducedTotal float64   `json:"produced_total"`
	ProducedMean  float64   `json:"produced_mean"`
	ProducedMin   float64   `json:"produced_min"`
	ProducedMax   float64   `json:"produced_max"`
	PackedTotal   float64   `json:"packed_total"`
	TruckTotal    float64   `json:"truck_total"`
	StockStart    float64   `json:"stock_start"` // first day's opening stock
	StockEnd      float64   `json:"stock_end"`   // last day's closing stock
}

// Summarize computes period statistics. An empty input yields a zero Summary.
func Summarize(results []produced.DailyResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	s := Summary{
		Days:        len(results),
		From:        results[0].Date,
		To:          results[len(results)-1].Date,
		ProducedMin: math.Inf(1),
		ProducedMax: math.Inf(-1),
		StockStart:  results[0].StockStart,
		StockEnd:    results[len(results)-1].StockEnd,
	}
	for _, r := range results {
		s.ProducedTotal += r.Produced
		s.ProducedMin = math.Min(s.ProducedMin, r.Produced)
		s.ProducedMax = math.Max(s.ProducedMax, r.Produced)
		s.PackedTotal += r.PackedTotal
		s.TruckTotal += r.TruckTotal
	}
	s.ProducedMean = s.ProducedTotal / float64(len(results))
	return s
}

// WeekStats aggregates the days of one ISO week.
type WeekStats struct {
	Week          string    `json:"week"` // YYYY-Www
	First         time.Time `json:"first"`
	Last          time.Time `json:"last"`
	Days          int       `json:"days"`
	ProducedTotal float64   `json:"produced_total"`
	ProducedMean  float64   `json:"produced_mean"`
	ProducedMin   float64   `json:"produced_min"`
	ProducedMax   float64   `json:"produced_max"`
	PackedTotal   float64   `json:"packed_total"`
	TruckTotal    float64   `json:"truck_total"`
}

// WeekKey formats the ISO week of t as YYYY-Www.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Weekly groups results by ISO week, ordered by week.
func Weekly(results []produced.DailyResult) []WeekStats {
	byWeek := make(map[string]*WeekStats)
	for _, r := range results {
		key := WeekKey(r.Date)
		w, ok := byWeek[key]
		if !ok {
			w = &WeekStats{
				Week:        key,
				First:       r.Date,
				Last:        r.Date,
				ProducedMin: math.Inf(1),
				ProducedMax: math.Inf(-1),
			}
			byWeek[key] = w
		}
		if r.Date.Before(w.First) {
			w.First = r.Date
		}
		if r.Date.After(w.Last) {
			w.Last = r.Date
		}
		w.Days++
		w.ProducedTotal += r.Produced
		w.ProducedMin = math.Min(w.ProducedMin, r.Produced)
		w.ProducedMax = math.Max(w.ProducedMax, r.Produced)
		w.PackedTotal += r.PackedTotal
		w.TruckTotal += r.TruckTotal
	}

	out := make([]WeekStats, 0, len(byWeek))
	for _, w := range byWeek {
		w.ProducedMean = w.ProducedTotal / float64(w.Days)
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}
