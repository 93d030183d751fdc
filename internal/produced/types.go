package produced

import "time"

// TruckMaterial is the material code every truck transfer is standardised with.
const TruckMaterial = 8

// PackedLines holds one day's packaging totals per line.
type PackedLines struct {
	OW1 float64
	RGB float64
	OW2 float64
	KEG float64
}

// Total is the day's packaged volume across the four lines.
func (p PackedLines) Total() float64 {
	return p.OW1 + p.RGB + p.OW2 + p.KEG
}

// TruckReading is one truck's daily level (summed) and Plato (averaged).
type TruckReading struct {
	Level float64
	Plato float64
}

// DailySnapshot is one row of the merged daily table.
type DailySnapshot struct {
	Date  time.Time
	Label string // day cell as it appeared in the stock export

	// Values holds the stock export's cells keyed by their exact header.
	Values map[string]string

	Packed PackedLines
	Trucks [2]TruckReading
}

// Has reports whether the snapshot carries a column.
func (s DailySnapshot) Has(column string) bool {
	_, ok := s.Values[column]
	return ok
}

// DayKey is the identifier used in error messages and logs.
func (s DailySnapshot) DayKey() string {
	if !s.Date.IsZero() {
		return s.Date.Format("2006-01-02")
	}
	return s.Label
}

// TruckResult is a truck's daily reading with its standardised volume.
type TruckResult struct {
	Level float64
	Plato float64
	HLStd float64
}

// TankResult is a vessel's reading on one day. RBT tanks carry no level and
// no standardised volume.
type TankResult struct {
	Tank     Tank
	Level    float64
	Plato    float64
	Material int
	HasLevel bool
	HLStd    float64
}

// DailyResult is the reconciled production figure for one day.
type DailyResult struct {
	Date  time.Time
	Label string

	Packed      PackedLines
	PackedTotal float64

	Trucks     [2]TruckResult
	TruckTotal float64

	StockStart float64
	StockEnd   float64
	StockDelta float64
	Produced   float64

	Tanks []TankResult
}
