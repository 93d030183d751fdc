package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/reconcile"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "produced-cli-")
	if err != nil {
		panic(err)
	}
	os.Setenv("APP_DATA_DIR", filepath.Join(dir, "input"))
	os.Setenv("APP_OUTPUT_DIR", filepath.Join(dir, "output"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	err := a.Run(append([]string{"produced"}, args...))
	return out.String(), err
}

func writeExports(t *testing.T, stock string) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"stock.csv": stock,
		"packed.csv": "Timestamp,Packed OW1,Packed RGB,Packed OW2,Packed KEG\n" +
			"2024-03-01 06:00:00,100,50,25,5\n",
		"truck.csv": "Timestamp,Truck1 Level,Truck1 Plato,Truck2 Level,Truck2 Plato\n" +
			"2024-03-02 06:00:00,0,0,0,0\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "stock.csv"), filepath.Join(dir, "packed.csv"), filepath.Join(dir, "truck.csv")
}

// stockExport builds a stock export with every registry column zeroed and
// BBT111 set on the second day.
func stockExport(level string) string {
	var header []string
	for _, tank := range produced.DefaultRegistry() {
		header = append(header, tank.PlatoColumn(), tank.MaterialColumn())
		if tank.HasLevel() {
			header = append(header, tank.LevelColumn())
		}
	}
	row := func(date string, values map[string]string) string {
		cells := []string{date}
		for _, h := range header {
			v, ok := values[h]
			if !ok {
				v = "0"
			}
			cells = append(cells, v)
		}
		return strings.Join(cells, ",")
	}
	return strings.Join([]string{
		"Time," + strings.Join(header, ","),
		row("2024-03-01", nil),
		row("2024-03-02", map[string]string{
			"BBT 111 Average Plato": "12",
			"BBT111 Material":       "8",
			"BBT111 Level":          level,
		}),
	}, "\n") + "\n"
}

func TestHLStdCommand(t *testing.T) {
	out, err := run(t, "hlstd", "--volume", "1000", "--plato", "12", "--material", "8")
	if err != nil {
		t.Fatal(err)
	}
	want := strconv.FormatFloat(1000*produced.PlatoToVolumetric(12)/11.57, 'f', -1, 64)
	if strings.TrimSpace(out) != want {
		t.Fatalf("hlstd = %q, want %q", out, want)
	}

	_, err = run(t, "hlstd", "--volume", "1000", "--plato", "12", "--material", "18")
	if err == nil || exitCode(err) != 2 {
		t.Fatalf("material 18 in the standard profile: err = %v", err)
	}
	if _, err := run(t, "--profile", "report", "hlstd", "--volume", "1000", "--plato", "12", "--material", "18"); err != nil {
		t.Fatalf("material 18 in the report profile: %v", err)
	}
}

func TestMaterialsCommand(t *testing.T) {
	out, err := run(t, "--profile", "standard", "--material-overrides", "", "materials")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 14 {
		t.Fatalf("got %d lines, want header + 13 materials:\n%s", len(lines), out)
	}
}

func TestRunCommand(t *testing.T) {
	stock, packed, truck := writeExports(t, stockExport("1000"))
	outDir := t.TempDir()

	out, err := run(t, "run", "--stock", stock, "--packed", packed, "--truck", truck,
		"--output", outDir, "--format", "csv,xlsx", "--decimal-comma")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2 days") || !strings.Contains(out, "wrote ") {
		t.Fatalf("output:\n%s", out)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "produced_*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("csv exports = %v, %v", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Data;") {
		t.Fatalf("decimal-comma csv must use ';': %.40s", data)
	}
}

func TestRunCommandNeedsAllPaths(t *testing.T) {
	stock, _, _ := writeExports(t, stockExport("1000"))
	if _, err := run(t, "run", "--stock", stock); err == nil {
		t.Fatal("expected error when only --stock is given")
	}
}

func TestMissingAndDayCommands(t *testing.T) {
	stock, packed, truck := writeExports(t, stockExport(""))

	out, err := run(t, "missing", "--stock", stock, "--packed", packed, "--truck", truck)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2024-03-02") || !strings.Contains(out, `"BBT111 Level"`) {
		t.Fatalf("missing output:\n%s", out)
	}

	_, err = run(t, "--missing", "fail", "day", "--stock", stock, "--packed", packed, "--truck", truck, "2024-03-02")
	if err == nil || exitCode(err) != 2 {
		t.Fatalf("day with blanks and fail strategy: err = %v", err)
	}

	out, err = run(t, "--missing", "zero", "day", "--stock", stock, "--packed", packed, "--truck", truck, "2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2024-03-01") {
		t.Fatalf("day output:\n%s", out)
	}
}

func TestExitCode(t *testing.T) {
	err := &produced.MissingColumnsError{Source: reconcile.SourcePacked}
	if exitCode(err) != 2 {
		t.Fatal("data errors exit with 2")
	}
	if exitCode(os.ErrNotExist) != 1 {
		t.Fatal("other errors exit with 1")
	}
}
