package produced

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	errNotANumber   = errors.New("value is NaN")
	errInfinite     = errors.New("value is infinite")
	errNotAnInteger = errors.New("value is out of integer range")
)

// Reading is one measurement of a vessel or truck on one day.
type Reading struct {
	Volume   float64
	Plato    float64
	Material int
}

// ParseReading coerces raw cell values into a Reading. Material is parsed as a
// float and truncated, so "8.0" is accepted and "eight" is not.
func ParseReading(volume, plato, material string) (Reading, error) {
	v, err := parseCell("volume", volume)
	if err != nil {
		return Reading{}, err
	}
	p, err := parseCell("plato", plato)
	if err != nil {
		return Reading{}, err
	}
	m, err := parseCell("material", material)
	if err != nil {
		return Reading{}, err
	}
	if m < math.MinInt || m >= -math.MinInt {
		return Reading{}, &InvalidReadingError{Field: "material", Value: material, Err: errNotAnInteger}
	}
	return Reading{Volume: v, Plato: p, Material: int(m)}, nil
}

// ParseValue coerces a single numeric cell; field names the value in errors.
func ParseValue(field, raw string) (float64, error) {
	return parseCell(field, raw)
}

func parseCell(field, raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &InvalidReadingError{Field: field, Value: raw, Err: err}
	}
	if math.IsNaN(f) {
		return 0, &InvalidReadingError{Field: field, Value: raw, Err: errNotANumber}
	}
	if math.IsInf(f, 0) {
		return 0, &InvalidReadingError{Field: field, Value: raw, Err: errInfinite}
	}
	return f, nil
}
