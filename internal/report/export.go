package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/produced-go/internal/produced"
)

// SheetName is the worksheet the XLSX export writes to.
const SheetName = "Produced"

// Format controls how numbers are rendered in text exports.
type Format struct {
	// Precision is the number of decimals; negative keeps the shortest
	// representation of the value.
	Precision int32
	// DecimalComma writes "1234,5" and separates fields with ';'.
	DecimalComma bool
}

// DefaultFormat writes full-precision numbers with a decimal point.
var DefaultFormat = Format{Precision: -1}

// Number renders v according to f.
func (f Format) Number(v float64) string {
	d := decimal.NewFromFloat(v)
	var s string
	if f.Precision < 0 {
		s = d.String()
	} else {
		s = d.StringFixed(f.Precision)
	}
	if f.DecimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

func (f Format) render(c cell) string {
	switch c.kind {
	case kindText:
		return c.text
	case kindInteger:
		return strconv.FormatInt(int64(c.value), 10)
	default:
		return f.Number(c.value)
	}
}

// Rows renders results as text rows in export column order. Cells of tanks
// absent on a given day are empty.
func Rows(results []produced.DailyResult, f Format) ([]string, [][]string) {
	cols := columns(results)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := c.value(r); ok {
				row[i] = f.render(v)
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

// WriteCSV writes the results table.
func WriteCSV(w io.Writer, results []produced.DailyResult, f Format) error {
	header, rows := Rows(results, f)

	cw := csv.NewWriter(w)
	if f.DecimalComma {
		cw.Comma = ';'
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes the results table to a single-sheet workbook. Numbers are
// stored as numeric cells.
func WriteXLSX(w io.Writer, results []produced.DailyResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	cols := columns(results)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range results {
		row := make([]any, len(cols))
		for j, c := range cols {
			v, ok := c.value(r)
			switch {
			case !ok:
				row[j] = nil
			case v.kind == kindText:
				row[j] = v.text
			case v.kind == kindInteger:
				row[j] = int(v.value)
			default:
				row[j] = v.value
			}
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cellName, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
