package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andresuchdata/produced-go/internal/produced"
)

// DayBreakdown decomposes one day's Produced figure.
type DayBreakdown struct {
	Index int // 0-based position in the run
	Days  int

	Result   produced.DailyResult
	Previous string // previous day key, empty on the first day

	StockStartByClass map[produced.TankClass]float64
	StockEndByClass   map[produced.TankClass]float64
}

// Find locates a day by ISO date (YYYY-MM-DD) or by 1-based row number.
func Find(results []produced.DailyResult, selector string) (int, error) {
	selector = strings.TrimSpace(selector)
	if strings.Contains(selector, "-") {
		for i, r := range results {
			if r.Date.Format("2006-01-02") == selector {
				return i, nil
			}
		}
		return -1, fmt.Errorf("date %s not found in results", selector)
	}

	n, err := strconv.Atoi(selector)
	if err != nil {
		return -1, fmt.Errorf("invalid day selector %q: want YYYY-MM-DD or a row number", selector)
	}
	if n < 1 || n > len(results) {
		return -1, fmt.Errorf("row %d out of range (1-%d)", n, len(results))
	}
	return n - 1, nil
}

// Breakdown builds the decomposition of results[i].
func Breakdown(results []produced.DailyResult, i int) (DayBreakdown, error) {
	if i < 0 || i >= len(results) {
		return DayBreakdown{}, fmt.Errorf("day index %d out of range", i)
	}

	b := DayBreakdown{
		Index:           i,
		Days:            len(results),
		Result:          results[i],
		StockEndByClass: byClass(results[i].Tanks),
	}
	if i > 0 {
		b.Previous = dayKey(results[i-1])
		b.StockStartByClass = byClass(results[i-1].Tanks)
	}
	return b, nil
}

func byClass(tanks []produced.TankResult) map[produced.TankClass]float64 {
	out := make(map[produced.TankClass]float64)
	for _, t := range tanks {
		if t.HasLevel {
			out[t.Tank.Class] += t.HLStd
		}
	}
	return out
}

func dayKey(r produced.DailyResult) string {
	if !r.Date.IsZero() {
		return r.Date.Format("2006-01-02")
	}
	return r.Label
}

// WriteBreakdown prints a human readable decomposition.
func WriteBreakdown(w io.Writer, b DayBreakdown) error {
	r := b.Result
	rule := strings.Repeat("-", 40)

	var sb strings.Builder
	fmt.Fprintf(&sb, "PRODUCED - %s (row %d/%d)\n\n", dayKey(r), b.Index+1, b.Days)

	sb.WriteString("PACKED:\n")
	fmt.Fprintf(&sb, "  - OW1: %10.2f hl\n", r.Packed.OW1)
	fmt.Fprintf(&sb, "  - RGB: %10.2f hl\n", r.Packed.RGB)
	fmt.Fprintf(&sb, "  - OW2: %10.2f hl\n", r.Packed.OW2)
	fmt.Fprintf(&sb, "  - KEG: %10.2f hl\n", r.Packed.KEG)
	fmt.Fprintf(&sb, "  %s\n  TOTAL PACKED: %10.2f hl\n\n", rule, r.PackedTotal)

	sb.WriteString("CISTERNE:\n")
	for i, t := range r.Trucks {
		fmt.Fprintf(&sb, "  - Truck%d: Plato=%.2f, Level=%.2f -> %.2f hl std\n", i+1, t.Plato, t.Level, t.HLStd)
	}
	fmt.Fprintf(&sb, "  %s\n  TOTAL CISTERNE: %10.2f hl std\n", rule, r.TruckTotal)
	fmt.Fprintf(&sb, "  CONTRIBUTION (/2): %10.2f hl\n\n", r.TruckTotal/2)

	sb.WriteString("STOCK:\n")
	if b.Index == 0 {
		sb.WriteString("  Opening stock: 0.00 hl (first day)\n")
	} else {
		fmt.Fprintf(&sb, "  Opening stock (from %s):\n", b.Previous)
		writeClasses(&sb, b.StockStartByClass)
		fmt.Fprintf(&sb, "    %s\n    TOTAL: %10.2f hl std\n", rule, r.StockStart)
	}
	fmt.Fprintf(&sb, "\n  Closing stock (%s):\n", dayKey(r))
	writeClasses(&sb, b.StockEndByClass)
	fmt.Fprintf(&sb, "    %s\n    TOTAL: %10.2f hl std\n\n", rule, r.StockEnd)
	fmt.Fprintf(&sb, "  Delta stock: %10.2f hl std\n", r.StockDelta)
	fmt.Fprintf(&sb, "  CONTRIBUTION (/2): %10.2f hl\n\n", r.StockDelta/2)

	sb.WriteString("PRODUCED = packed + cisterne/2 + delta/2\n")
	fmt.Fprintf(&sb, "         = %.2f + %.2f + %.2f\n", r.PackedTotal, r.TruckTotal/2, r.StockDelta/2)
	fmt.Fprintf(&sb, "         = %.2f hl\n", r.Produced)

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeClasses(sb *strings.Builder, totals map[produced.TankClass]float64) {
	for _, class := range []produced.TankClass{produced.ClassBBT, produced.ClassFST} {
		fmt.Fprintf(sb, "    - %s tanks: %10.2f hl std\n", class, totals[class])
	}
}
