package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSVKeepsHeaderWhitespace(t *testing.T) {
	src := "\ufeffTime,FST111 Level ,BBT111 Level\n2024-03-01,10,20\n2024-03-02,11\n"

	tbl, err := ReadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}

	if !tbl.Has("Time") {
		t.Fatal("byte order mark not stripped from first header")
	}
	if !tbl.Has("FST111 Level ") || tbl.Has("FST111 Level") {
		t.Fatal("trailing space in header must be preserved")
	}
	if got := tbl.Value(0, "FST111 Level "); got != "10" {
		t.Fatalf("Value = %q", got)
	}
	if got := tbl.Value(1, "BBT111 Level"); got != "" {
		t.Fatalf("short row should read as empty, got %q", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len = %d", tbl.Len())
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestReadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Time", "BBT111 Level"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"2024-03-01", "1000"})
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	tbl, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Value(0, "BBT111 Level"); got != "1000" {
		t.Fatalf("Value = %q", got)
	}
}

func TestReadFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsBlank(t *testing.T) {
	for _, v := range []string{"", "  ", "NaN", "nan", "NULL"} {
		if !IsBlank(v) {
			t.Errorf("IsBlank(%q) = false", v)
		}
	}
	for _, v := range []string{"0", "abc", "1.5"} {
		if IsBlank(v) {
			t.Errorf("IsBlank(%q) = true", v)
		}
	}
}
