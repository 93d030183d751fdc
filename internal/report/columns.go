package report

import (
	"fmt"

	"github.com/andresuchdata/produced-go/internal/produced"
)

// Fixed export headers.
const (
	ColDate        = "Data"
	ColPackedTotal = "Packed Total"
	ColTruckTotal  = "Cisterne Total"
	ColStockStart  = "Stock Iniziale"
	ColStockEnd    = "Stock Finale"
	ColStockDelta  = "Delta Stock"
	ColProduced    = "Produced"
)

// cellKind tells writers how to render a value.
type cellKind int

const (
	kindText cellKind = iota
	kindNumber
	kindInteger
)

type cell struct {
	kind  cellKind
	text  string
	value float64
}

type column struct {
	name  string
	value func(r produced.DailyResult) (cell, bool)
}

func num(v float64) (cell, bool) { return cell{kind: kindNumber, value: v}, true }

// columns lists the export layout. Tank columns follow the registry order of
// the tanks that appear in results.
func columns(results []produced.DailyResult) []column {
	cols := []column{
		{ColDate, func(r produced.DailyResult) (cell, bool) {
			label := r.Label
			if label == "" && !r.Date.IsZero() {
				label = r.Date.Format("2006-01-02")
			}
			return cell{kind: kindText, text: label}, true
		}},
		{"Packed OW1", func(r produced.DailyResult) (cell, bool) { return num(r.Packed.OW1) }},
		{"Packed RGB", func(r produced.DailyResult) (cell, bool) { return num(r.Packed.RGB) }},
		{"Packed OW2", func(r produced.DailyResult) (cell, bool) { return num(r.Packed.OW2) }},
		{"Packed KEG", func(r produced.DailyResult) (cell, bool) { return num(r.Packed.KEG) }},
		{ColPackedTotal, func(r produced.DailyResult) (cell, bool) { return num(r.PackedTotal) }},
	}

	for n := range 2 {
		cols = append(cols,
			column{fmt.Sprintf("Truck%d Plato", n+1), func(r produced.DailyResult) (cell, bool) { return num(r.Trucks[n].Plato) }},
			column{fmt.Sprintf("Truck%d Level", n+1), func(r produced.DailyResult) (cell, bool) { return num(r.Trucks[n].Level) }},
			column{fmt.Sprintf("Truck%d hl_std", n+1), func(r produced.DailyResult) (cell, bool) { return num(r.Trucks[n].HLStd) }},
		)
	}
	cols = append(cols, column{ColTruckTotal, func(r produced.DailyResult) (cell, bool) { return num(r.TruckTotal) }})

	for _, tank := range tanksOf(results) {
		find := func(r produced.DailyResult) (produced.TankResult, bool) {
			for _, tr := range r.Tanks {
				if tr.Tank == tank {
					return tr, true
				}
			}
			return produced.TankResult{}, false
		}

		if !tank.HasLevel() {
			cols = append(cols,
				column{tank.String() + " Plato", func(r produced.DailyResult) (cell, bool) {
					tr, ok := find(r)
					return cell{kind: kindNumber, value: tr.Plato}, ok
				}},
				column{tank.String() + " Material", func(r produced.DailyResult) (cell, bool) {
					tr, ok := find(r)
					return cell{kind: kindInteger, value: float64(tr.Material)}, ok
				}},
			)
			continue
		}
		cols = append(cols,
			column{tank.String() + " Level", func(r produced.DailyResult) (cell, bool) {
				tr, ok := find(r)
				return cell{kind: kindNumber, value: tr.Level}, ok
			}},
			column{tank.String() + " Plato", func(r produced.DailyResult) (cell, bool) {
				tr, ok := find(r)
				return cell{kind: kindNumber, value: tr.Plato}, ok
			}},
			column{tank.String() + " hl_std", func(r produced.DailyResult) (cell, bool) {
				tr, ok := find(r)
				return cell{kind: kindNumber, value: tr.HLStd}, ok
			}},
		)
	}

	return append(cols,
		column{ColStockStart, func(r produced.DailyResult) (cell, bool) { return num(r.StockStart) }},
		column{ColStockEnd, func(r produced.DailyResult) (cell, bool) { return num(r.StockEnd) }},
		column{ColStockDelta, func(r produced.DailyResult) (cell, bool) { return num(r.StockDelta) }},
		column{ColProduced, func(r produced.DailyResult) (cell, bool) { return num(r.Produced) }},
	)
}

// tanksOf returns every tank reported in results, in first-seen order.
func tanksOf(results []produced.DailyResult) []produced.Tank {
	seen := make(map[produced.Tank]struct{})
	var out []produced.Tank
	for _, r := range results {
		for _, tr := range r.Tanks {
			if _, ok := seen[tr.Tank]; ok {
				continue
			}
			seen[tr.Tank] = struct{}{}
			out = append(out, tr.Tank)
		}
	}
	return out
}

// Header returns the export header for results.
func Header(results []produced.DailyResult) []string {
	cols := columns(results)
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}
