package produced

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaterialTable maps a material code to its standard degree.
// Code 0 is the "empty vessel" sentinel and always maps to 0.
type MaterialTable map[int]float64

// Material profiles selectable through configuration.
const (
	ProfileStandard = "standard"
	ProfileReport   = "report"
)

// DefaultMaterials returns the table shared by every batch entry point.
func DefaultMaterials() MaterialTable {
	return MaterialTable{
		0:  0,
		1:  11.03,
		2:  11.03,
		3:  11.57,
		7:  11.03,
		8:  11.57,
		9:  11.68,
		10: 11.03,
		21: 11.68,
		22: 11.68,
		28: 11.68,
		32: 11.03,
		36: 11.03,
	}
}

// ReportMaterials returns the default table plus code 18, which the PDF report
// has always carried and the batch tools never did.
func ReportMaterials() MaterialTable {
	return DefaultMaterials().With(map[int]float64{18: 11.68})
}

// MaterialsForProfile resolves a profile name into a fresh table.
func MaterialsForProfile(profile string) (MaterialTable, error) {
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case "", ProfileStandard:
		return DefaultMaterials(), nil
	case ProfileReport:
		return ReportMaterials(), nil
	default:
		return nil, fmt.Errorf("unknown material profile %q (want %s or %s)", profile, ProfileStandard, ProfileReport)
	}
}

// With returns a copy of the table with the given entries added or replaced.
// The receiver is never modified.
func (m MaterialTable) With(entries map[int]float64) MaterialTable {
	out := make(MaterialTable, len(m)+len(entries))
	for code, deg := range m {
		out[code] = deg
	}
	for code, deg := range entries {
		out[code] = deg
	}
	return out
}

// Lookup returns the standard degree for code or an *UnknownMaterialError.
func (m MaterialTable) Lookup(code int) (float64, error) {
	deg, ok := m[code]
	if !ok {
		return 0, &UnknownMaterialError{Code: code}
	}
	return deg, nil
}

// Codes returns the table's codes in ascending order.
func (m MaterialTable) Codes() []int {
	codes := make([]int, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// ParseMaterialOverrides parses "18=11.68,40=11.2" into table entries.
func ParseMaterialOverrides(raw string) (map[int]float64, error) {
	entries := make(map[int]float64)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, deg, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("material override %q: expected code=degree", part)
		}
		c, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("material override %q: invalid code: %w", part, err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(deg), 64)
		if err != nil {
			return nil, fmt.Errorf("material override %q: invalid degree: %w", part, err)
		}
		if c == 0 && d != 0 {
			return nil, fmt.Errorf("material override %q: code 0 is reserved for empty vessels", part)
		}
		entries[c] = d
	}
	return entries, nil
}
