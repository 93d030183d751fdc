package produced

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidReadingError reports a cell that could not be coerced to its numeric type.
type InvalidReadingError struct {
	Day    string // day label, empty when not yet known
	Source string // tank or truck name
	Field  string // volume, plato or material
	Value  string
	Err    error
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("%sinvalid %s value %q", location(e.Day, e.Source), e.Field, e.Value)
}

func (e *InvalidReadingError) Unwrap() error { return e.Err }

// UnknownMaterialError reports a material code missing from the material table.
type UnknownMaterialError struct {
	Day    string
	Source string
	Code   int
}

func (e *UnknownMaterialError) Error() string {
	return fmt.Sprintf("%smaterial %d not found in material table", location(e.Day, e.Source), e.Code)
}

// MissingColumnsError reports that none of the accepted aliases of a required
// field exist in a source table.
type MissingColumnsError struct {
	Source   string
	Required []string
	Found    []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: required columns not found (want one of: %s; found: %s)",
		e.Source, strings.Join(e.Required, ", "), strings.Join(e.Found, ", "))
}

func location(day, source string) string {
	var parts []string
	if day != "" {
		parts = append(parts, "day "+day)
	}
	if source != "" {
		parts = append(parts, source)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ") + ": "
}

// annotate attaches day and source context to reading errors raised by the
// standardized-volume calculator. Other errors pass through unchanged.
func annotate(err error, day, source string) error {
	var invalid *InvalidReadingError
	if errors.As(err, &invalid) {
		if invalid.Day == "" {
			invalid.Day = day
		}
		if invalid.Source == "" {
			invalid.Source = source
		}
		return err
	}
	var unknown *UnknownMaterialError
	if errors.As(err, &unknown) {
		if unknown.Day == "" {
			unknown.Day = day
		}
		if unknown.Source == "" {
			unknown.Source = source
		}
	}
	return err
}
