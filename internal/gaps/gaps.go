// Package gaps finds blank cells in the stock export and fills them before the
// calculator sees the data.
package gaps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/produced-go/internal/tabular"
)

// Missing is one blank cell.
type Missing struct {
	Row    int    // 0-based data row
	Label  string // day cell of the row, or "row N" when absent
	Column string
}

// Strategy names accepted by ParseStrategy.
const (
	StrategyFail    = "fail"
	StrategyZero    = "zero"
	StrategyDefault = "default"
	StrategyFFill   = "ffill"
)

// Strategy says how blank cells are resolved.
type Strategy struct {
	Kind  string
	Value float64 // fill value for zero/default
}

func (s Strategy) String() string {
	if s.Kind == StrategyDefault {
		return fmt.Sprintf("%s=%s", s.Kind, strconv.FormatFloat(s.Value, 'f', -1, 64))
	}
	return s.Kind
}

// ParseStrategy parses "fail", "zero", "default=<v>" or "ffill".
func ParseStrategy(raw string) (Strategy, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "" || s == StrategyFail:
		return Strategy{Kind: StrategyFail}, nil
	case s == StrategyZero:
		return Strategy{Kind: StrategyZero}, nil
	case s == StrategyFFill:
		return Strategy{Kind: StrategyFFill}, nil
	case strings.HasPrefix(s, StrategyDefault+"="):
		v, err := strconv.ParseFloat(strings.TrimPrefix(s, StrategyDefault+"="), 64)
		if err != nil {
			return Strategy{}, fmt.Errorf("invalid default fill value in %q: %w", raw, err)
		}
		return Strategy{Kind: StrategyDefault, Value: v}, nil
	default:
		return Strategy{}, fmt.Errorf("unknown missing-value strategy %q (want fail, zero, default=<v> or ffill)", raw)
	}
}

// MissingValuesError lists the blank cells left unresolved by StrategyFail.
type MissingValuesError struct {
	Missing []Missing
}

func (e *MissingValuesError) Error() string {
	const shown = 5
	var b strings.Builder
	fmt.Fprintf(&b, "%d missing values", len(e.Missing))
	for i, m := range e.Missing {
		if i == shown {
			fmt.Fprintf(&b, "; and %d more", len(e.Missing)-shown)
			break
		}
		fmt.Fprintf(&b, "; %s: %q", m.Label, m.Column)
	}
	return b.String()
}

// Detect returns every blank cell of t in row then column order. When columns
// is empty all columns except labelColumn are checked.
func Detect(t *tabular.Table, labelColumn string, columns ...string) []Missing {
	cols := columns
	if len(cols) == 0 {
		for _, h := range t.Header {
			if h != labelColumn {
				cols = append(cols, h)
			}
		}
	}

	var out []Missing
	for row := range t.Rows {
		label := t.Value(row, labelColumn)
		if strings.TrimSpace(label) == "" {
			label = fmt.Sprintf("row %d", row+1)
		}
		for _, col := range cols {
			if !t.Has(col) {
				continue
			}
			if tabular.IsBlank(t.Value(row, col)) {
				out = append(out, Missing{Row: row, Label: label, Column: col})
			}
		}
	}
	return out
}

// Resolve fills the given blank cells of t in place according to s.
// Forward fill takes the last non-blank value above in the same column and
// falls back to 0 for leading gaps.
func Resolve(t *tabular.Table, missing []Missing, s Strategy) error {
	if len(missing) == 0 {
		return nil
	}

	switch s.Kind {
	case StrategyFail, "":
		return &MissingValuesError{Missing: missing}
	case StrategyZero:
		for _, m := range missing {
			set(t, m.Row, m.Column, "0")
		}
	case StrategyDefault:
		v := strconv.FormatFloat(s.Value, 'f', -1, 64)
		for _, m := range missing {
			set(t, m.Row, m.Column, v)
		}
	case StrategyFFill:
		// missing is in row order, so earlier fills propagate downward.
		for _, m := range missing {
			set(t, m.Row, m.Column, previous(t, m.Row, m.Column))
		}
	default:
		return fmt.Errorf("unknown missing-value strategy %q", s.Kind)
	}
	return nil
}

func previous(t *tabular.Table, row int, column string) string {
	for r := row - 1; r >= 0; r-- {
		if v := t.Value(r, column); !tabular.IsBlank(v) {
			return v
		}
	}
	return "0"
}

func set(t *tabular.Table, row int, column, value string) {
	i := t.Index(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return
	}
	for len(t.Rows[row]) <= i {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][i] = value
}
