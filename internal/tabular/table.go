// Package tabular holds the in-memory table the reconciler and reports work on,
// plus readers for the CSV and XLSX exports produced by the plant systems.
package tabular

import "strings"

// Table is a header plus string rows. Header cells are kept exactly as read,
// including surrounding whitespace, since some exports depend on it.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// New builds a table and indexes its header.
func New(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// Index returns the position of column or -1.
func (t *Table) Index(column string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Has reports whether the table carries column.
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Value returns the cell at row/column, or "" when either is out of range.
func (t *Table) Value(row int, column string) string {
	i := t.Index(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return cell(t.Rows[row], i)
}

// Record returns a row keyed by header.
func (t *Table) Record(row int) map[string]string {
	out := make(map[string]string, len(t.Header))
	if row < 0 || row >= len(t.Rows) {
		return out
	}
	for i, h := range t.Header {
		if _, dup := out[h]; dup {
			continue
		}
		out[h] = cell(t.Rows[row], i)
	}
	return out
}

// Len is the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// IsBlank reports whether a cell carries no value.
func IsBlank(v string) bool {
	s := strings.TrimSpace(v)
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null")
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
