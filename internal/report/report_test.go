package report

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/produced-go/internal/produced"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleResults() []produced.DailyResult {
	bbt := produced.Tank{Class: produced.ClassBBT, Number: 111}
	fst := produced.Tank{Class: produced.ClassFST, Number: 111}
	rbt := produced.Tank{Class: produced.ClassRBT, Number: 251}

	return []produced.DailyResult{
		{
			Date: day(2024, time.March, 3), Label: "2024-03-03 23:59:00",
			Packed:      produced.PackedLines{OW1: 10, RGB: 5},
			PackedTotal: 15,
			Produced:    15,
			Tanks: []produced.TankResult{
				{Tank: bbt, HasLevel: true},
				{Tank: fst, HasLevel: true},
				{Tank: rbt, Plato: 11.2, Material: 8},
			},
		},
		{
			Date: day(2024, time.March, 4), Label: "2024-03-04 23:59:00",
			PackedTotal: 20,
			TruckTotal:  10,
			StockEnd:    100,
			StockDelta:  100,
			Produced:    75,
			Tanks: []produced.TankResult{
				{Tank: bbt, Level: 1000, Plato: 12, Material: 8, HasLevel: true, HLStd: 60},
				{Tank: fst, Level: 500, Plato: 10, Material: 9, HasLevel: true, HLStd: 40},
				{Tank: rbt, Plato: 11.5, Material: 8},
			},
		},
		{
			Date: day(2024, time.March, 5), Label: "2024-03-05 23:59:00",
			PackedTotal: 5,
			StockStart:  100,
			StockEnd:    90,
			StockDelta:  -10,
			Produced:    0.5,
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())

	if s.Days != 3 || s.ProducedTotal != 90.5 || s.ProducedMin != 0.5 || s.ProducedMax != 75 {
		t.Fatalf("summary = %+v", s)
	}
	if math.Abs(s.ProducedMean-90.5/3) > 1e-12 {
		t.Fatalf("mean = %v", s.ProducedMean)
	}
	if s.PackedTotal != 40 || s.TruckTotal != 10 || s.StockStart != 0 || s.StockEnd != 90 {
		t.Fatalf("summary totals = %+v", s)
	}
	if Summarize(nil) != (Summary{}) {
		t.Fatal("empty input should yield zero summary")
	}
}

func TestWeekly(t *testing.T) {
	// 2024-03-03 is a Sunday (ISO week 9), the 4th and 5th are in week 10.
	weeks := Weekly(sampleResults())
	if len(weeks) != 2 {
		t.Fatalf("got %d weeks", len(weeks))
	}
	if weeks[0].Week != "2024-W09" || weeks[0].Days != 1 || weeks[0].ProducedTotal != 15 {
		t.Fatalf("week 9 = %+v", weeks[0])
	}
	w := weeks[1]
	if w.Week != "2024-W10" || w.Days != 2 || w.ProducedTotal != 75.5 || w.ProducedMin != 0.5 || w.ProducedMax != 75 {
		t.Fatalf("week 10 = %+v", w)
	}
	if w.First != day(2024, time.March, 4) || w.Last != day(2024, time.March, 5) {
		t.Fatalf("week 10 range = %v - %v", w.First, w.Last)
	}
	if w.ProducedMean != 37.75 || w.PackedTotal != 25 {
		t.Fatalf("week 10 mean/packed = %v/%v", w.ProducedMean, w.PackedTotal)
	}
}

func TestWeekKeyYearBoundary(t *testing.T) {
	if got := WeekKey(day(2024, time.December, 30)); got != "2025-W01" {
		t.Fatalf("WeekKey = %s", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResults(), DefaultFormat); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	header := records[0]

	wantPrefix := []string{"Data", "Packed OW1", "Packed RGB", "Packed OW2", "Packed KEG", "Packed Total",
		"Truck1 Plato", "Truck1 Level", "Truck1 hl_std", "Truck2 Plato", "Truck2 Level", "Truck2 hl_std",
		"Cisterne Total", "BBT111 Level", "BBT111 Plato", "BBT111 hl_std", "FST111 Level", "FST111 Plato",
		"FST111 hl_std", "RBT251 Plato", "RBT251 Material"}
	for i, h := range wantPrefix {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}
	if got := strings.Join(header[len(header)-4:], ","); got != "Stock Iniziale,Stock Finale,Delta Stock,Produced" {
		t.Fatalf("header tail = %s", got)
	}

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %s missing", name)
		return -1
	}

	if records[1][0] != "2024-03-03 23:59:00" {
		t.Fatalf("Data = %q", records[1][0])
	}
	if records[2][col("BBT111 Level")] != "1000" || records[2][col("RBT251 Material")] != "8" {
		t.Fatalf("row 2 = %v", records[2])
	}
	if records[3][col("BBT111 Level")] != "" {
		t.Fatal("tank absent on a day should leave an empty cell")
	}
	if records[3][col("Produced")] != "0.5" || records[3][col("Delta Stock")] != "-10" {
		t.Fatalf("row 3 = %v", records[3])
	}
}

func TestWriteCSVDecimalComma(t *testing.T) {
	var buf bytes.Buffer
	f := Format{Precision: 2, DecimalComma: true}
	if err := WriteCSV(&buf, sampleResults(), f); err != nil {
		t.Fatal(err)
	}

	r := csv.NewReader(&buf)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	last := records[3]
	if last[len(last)-1] != "0,50" {
		t.Fatalf("Produced = %q, want 0,50", last[len(last)-1])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleResults()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "Data" || rows[2][0] != "2024-03-04 23:59:00" {
		t.Fatalf("unexpected cells: %v / %v", rows[0][0], rows[2][0])
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, sampleResults(), PDFOptions{GeneratedAt: day(2024, time.April, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
}

func TestFindAndBreakdown(t *testing.T) {
	results := sampleResults()

	for _, tt := range []struct {
		selector string
		want     int
		wantErr  bool
	}{
		{"2024-03-04", 1, false},
		{"3", 2, false},
		{"2024-04-01", -1, true},
		{"0", -1, true},
		{"four", -1, true},
	} {
		got, err := Find(results, tt.selector)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Find(%q) = %d, %v", tt.selector, got, err)
		}
	}

	b, err := Breakdown(results, 2)
	if err != nil {
		t.Fatal(err)
	}
	if b.Previous != "2024-03-04" {
		t.Fatalf("Previous = %q", b.Previous)
	}
	if b.StockStartByClass[produced.ClassBBT] != 60 || b.StockStartByClass[produced.ClassFST] != 40 {
		t.Fatalf("opening stock by class = %v", b.StockStartByClass)
	}

	var out strings.Builder
	if err := WriteBreakdown(&out, b); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{"row 3/3", "from 2024-03-04", "= 0.50 hl"} {
		if !strings.Contains(text, want) {
			t.Errorf("breakdown missing %q:\n%s", want, text)
		}
	}
}
