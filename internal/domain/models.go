package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/produced-go/internal/produced"
)

// ProducedDay is a stored daily production result
type ProducedDay struct {
	Date        time.Time   `json:"date" db:"date"`
	Label       string      `json:"label" db:"label"`
	PackedOW1   float64     `json:"packed_ow1" db:"packed_ow1"`
	PackedRGB   float64     `json:"packed_rgb" db:"packed_rgb"`
	PackedOW2   float64     `json:"packed_ow2" db:"packed_ow2"`
	PackedKEG   float64     `json:"packed_keg" db:"packed_keg"`
	PackedTotal float64     `json:"packed_total" db:"packed_total"`
	Truck1Level float64     `json:"truck1_level" db:"truck1_level"`
	Truck1Plato float64     `json:"truck1_plato" db:"truck1_plato"`
	Truck1HLStd float64     `json:"truck1_hl_std" db:"truck1_hl_std"`
	Truck2Level float64     `json:"truck2_level" db:"truck2_level"`
	Truck2Plato float64     `json:"truck2_plato" db:"truck2_plato"`
	Truck2HLStd float64     `json:"truck2_hl_std" db:"truck2_hl_std"`
	TruckTotal  float64     `json:"truck_total" db:"truck_total"`
	StockStart  float64     `json:"stock_start" db:"stock_start"`
	StockEnd    float64     `json:"stock_end" db:"stock_end"`
	StockDelta  float64     `json:"stock_delta" db:"stock_delta"`
	Produced    float64     `json:"produced" db:"produced"`
	Tanks       TankDetails `json:"tanks,omitempty" db:"tanks"`
	RunID       *int64      `json:"run_id,omitempty" db:"run_id"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// TankDetail is one vessel's reading on a stored day
type TankDetail struct {
	Tank     string  `json:"tank"`
	Class    string  `json:"class"`
	Number   int     `json:"number"`
	Level    float64 `json:"level,omitempty"`
	Plato    float64 `json:"plato"`
	Material int     `json:"material"`
	HLStd    float64 `json:"hl_std,omitempty"`
	HasLevel bool    `json:"has_level"`
}

// TankDetails is persisted as a JSONB column
type TankDetails []TankDetail

func (t TankDetails) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *TankDetails) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TankDetails", src)
	}
	return json.Unmarshal(raw, t)
}

// FromResult converts a computed result into its stored form
func FromResult(r produced.DailyResult) ProducedDay {
	day := ProducedDay{
		Date:        r.Date,
		Label:       r.Label,
		PackedOW1:   r.Packed.OW1,
		PackedRGB:   r.Packed.RGB,
		PackedOW2:   r.Packed.OW2,
		PackedKEG:   r.Packed.KEG,
		PackedTotal: r.PackedTotal,
		Truck1Level: r.Trucks[0].Level,
		Truck1Plato: r.Trucks[0].Plato,
		Truck1HLStd: r.Trucks[0].HLStd,
		Truck2Level: r.Trucks[1].Level,
		Truck2Plato: r.Trucks[1].Plato,
		Truck2HLStd: r.Trucks[1].HLStd,
		TruckTotal:  r.TruckTotal,
		StockStart:  r.StockStart,
		StockEnd:    r.StockEnd,
		StockDelta:  r.StockDelta,
		Produced:    r.Produced,
	}
	for _, t := range r.Tanks {
		day.Tanks = append(day.Tanks, TankDetail{
			Tank:     t.Tank.String(),
			Class:    string(t.Tank.Class),
			Number:   t.Tank.Number,
			Level:    t.Level,
			Plato:    t.Plato,
			Material: t.Material,
			HLStd:    t.HLStd,
			HasLevel: t.HasLevel,
		})
	}
	return day
}

// Result converts a stored day back into a calculator result
func (d ProducedDay) Result() produced.DailyResult {
	r := produced.DailyResult{
		Date:        d.Date,
		Label:       d.Label,
		Packed:      produced.PackedLines{OW1: d.PackedOW1, RGB: d.PackedRGB, OW2: d.PackedOW2, KEG: d.PackedKEG},
		PackedTotal: d.PackedTotal,
		Trucks: [2]produced.TruckResult{
			{Level: d.Truck1Level, Plato: d.Truck1Plato, HLStd: d.Truck1HLStd},
			{Level: d.Truck2Level, Plato: d.Truck2Plato, HLStd: d.Truck2HLStd},
		},
		TruckTotal: d.TruckTotal,
		StockStart: d.StockStart,
		StockEnd:   d.StockEnd,
		StockDelta: d.StockDelta,
		Produced:   d.Produced,
	}
	for _, t := range d.Tanks {
		r.Tanks = append(r.Tanks, produced.TankResult{
			Tank:     produced.Tank{Class: produced.TankClass(t.Class), Number: t.Number},
			Level:    t.Level,
			Plato:    t.Plato,
			Material: t.Material,
			HasLevel: t.HasLevel,
			HLStd:    t.HLStd,
		})
	}
	return r
}

// Results converts stored days into calculator results, preserving order
func Results(days []ProducedDay) []produced.DailyResult {
	out := make([]produced.DailyResult, len(days))
	for i, d := range days {
		out[i] = d.Result()
	}
	return out
}

// DateRange bounds a query; zero values are open ends
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Key identifies the range in cache keys
func (r DateRange) Key() string {
	return fmt.Sprintf("%s:%s", dateOrOpen(r.From), dateOrOpen(r.To))
}

func dateOrOpen(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format("2006-01-02")
}

// Material is one entry of the active material table
type Material struct {
	Code           int     `json:"code"`
	StandardDegree float64 `json:"standard_degree"`
}
