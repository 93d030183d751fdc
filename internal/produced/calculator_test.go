package produced

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"
)

const tolerance = 1e-9

func hlStd(volume, plato float64, std float64) float64 {
	return volume * PlatoToVolumetric(plato) / std
}

func TestStandardVolume(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name string
		in   Reading
		want float64
	}{
		{name: "zero volume", in: Reading{Volume: 0, Plato: 12, Material: 99}, want: 0},
		{name: "zero plato", in: Reading{Volume: 100, Plato: 0, Material: 99}, want: 0},
		{name: "empty material", in: Reading{Volume: 100, Plato: 12, Material: 0}, want: 0},
		{name: "material 8", in: Reading{Volume: 100, Plato: 10, Material: 8}, want: hlStd(100, 10, 11.57)},
		{name: "material 9", in: Reading{Volume: 250, Plato: 11.5, Material: 9}, want: hlStd(250, 11.5, 11.68)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.StandardVolume(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > tolerance {
				t.Fatalf("StandardVolume(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStandardVolumeUnknownMaterial(t *testing.T) {
	_, err := NewCalculator().StandardVolume(Reading{Volume: 100, Plato: 10, Material: 99})

	var unknown *UnknownMaterialError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMaterialError, got %v", err)
	}
}

func TestStandardVolumeMaterial18ByProfile(t *testing.T) {
	r := Reading{Volume: 100, Plato: 10, Material: 18}

	if _, err := NewCalculator().StandardVolume(r); err == nil {
		t.Fatal("standard table must reject material 18")
	}

	got, err := NewCalculator(WithMaterials(ReportMaterials())).StandardVolume(r)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-hlStd(100, 10, 11.68)) > tolerance {
		t.Fatalf("got %v", got)
	}
}

func TestCalcHLStd(t *testing.T) {
	calc := NewCalculator()

	got, err := calc.CalcHLStd("100", "10", "8.0")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-hlStd(100, 10, 11.57)) > tolerance {
		t.Fatalf("CalcHLStd = %v", got)
	}

	_, err = calc.CalcHLStd("100", "10", "eight")
	var invalid *InvalidReadingError
	if !errors.As(err, &invalid) || invalid.Field != "material" {
		t.Fatalf("expected InvalidReadingError on material, got %v", err)
	}

	_, err = calc.CalcHLStd("", "10", "8")
	if !errors.As(err, &invalid) || invalid.Field != "volume" {
		t.Fatalf("expected InvalidReadingError on volume, got %v", err)
	}
}

func TestCalcHLStdRejectsNonFinite(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		volume, plato, material string
		field                   string
	}{
		{"0", "10", "inf", "material"},
		{"100", "10", "-Inf", "material"},
		{"100", "10", "1e300", "material"},
		{"100", "10", "NaN", "material"},
		{"+Inf", "10", "8", "volume"},
		{"100", "inf", "8", "plato"},
	}
	for _, tt := range tests {
		_, err := calc.CalcHLStd(tt.volume, tt.plato, tt.material)
		var invalid *InvalidReadingError
		if !errors.As(err, &invalid) || invalid.Field != tt.field {
			t.Errorf("CalcHLStd(%q, %q, %q) = %v, want InvalidReadingError on %s",
				tt.volume, tt.plato, tt.material, err, tt.field)
		}
	}
}

// stockValues builds a stock row with every registered tank empty.
func stockValues() map[string]string {
	values := make(map[string]string)
	for _, tank := range DefaultRegistry() {
		values[tank.PlatoColumn()] = "0"
		values[tank.MaterialColumn()] = "0"
		if tank.HasLevel() {
			values[tank.LevelColumn()] = "0"
		}
	}
	return values
}

func day(n int) time.Time {
	return time.Date(2024, time.March, n, 0, 0, 0, 0, time.UTC)
}

func TestAggregateStock(t *testing.T) {
	calc := NewCalculator()

	values := stockValues()
	values["BBT111 Level"] = "1000"
	values["BBT 111 Average Plato"] = "12"
	values["BBT111 Material"] = "8"
	values["FST111 Level "] = "500"
	values["FST 111 Average Plato"] = "10"
	values["FST111 Material"] = "9"
	// RBT tanks never contribute volume.
	values["RBT 251 Average Plato"] = "12"
	values["RBT251 Material"] = "8"

	got, err := calc.AggregateStock(DailySnapshot{Date: day(1), Values: values})
	if err != nil {
		t.Fatal(err)
	}
	want := hlStd(1000, 12, 11.57) + hlStd(500, 10, 11.68)
	if math.Abs(got-want) > tolerance {
		t.Fatalf("AggregateStock = %v, want %v", got, want)
	}
}

func TestAggregateStockFSTLevelTrailingSpace(t *testing.T) {
	calc := NewCalculator()

	values := map[string]string{
		"FST 111 Average Plato": "10",
		"FST111 Level":          "500", // no trailing space: not the tank's column
		"FST111 Material":       "8",
	}

	got, err := calc.AggregateStock(DailySnapshot{Date: day(1), Values: values})
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("tank without its exact level column must be skipped, got %v", got)
	}
}

func TestAggregateStockErrorNamesDayAndTank(t *testing.T) {
	values := stockValues()
	values["BBT112 Level"] = "10"
	values["BBT 112 Average Plato"] = "11"
	values["BBT112 Material"] = "77"

	_, err := NewCalculator().AggregateStock(DailySnapshot{Date: day(4), Values: values})

	var unknown *UnknownMaterialError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMaterialError, got %v", err)
	}
	if unknown.Day != "2024-03-04" || unknown.Source != "BBT112" {
		t.Fatalf("error context = day %q tank %q", unknown.Day, unknown.Source)
	}
}

func TestTankBreakdownOrder(t *testing.T) {
	values := stockValues()
	tanks, err := NewCalculator().TankBreakdown(DailySnapshot{Date: day(1), Values: values})
	if err != nil {
		t.Fatal(err)
	}
	if len(tanks) != len(DefaultRegistry()) {
		t.Fatalf("got %d tanks, want %d", len(tanks), len(DefaultRegistry()))
	}
	if tanks[0].Tank.String() != "BBT111" || tanks[len(tanks)-1].Tank.String() != "RBT252" {
		t.Fatalf("unexpected order: first %s last %s", tanks[0].Tank, tanks[len(tanks)-1].Tank)
	}
	if tanks[len(tanks)-1].HasLevel {
		t.Fatal("RBT tanks must not report a level")
	}
}

func TestRunTwoDayScenario(t *testing.T) {
	calc := NewCalculator()

	day1 := DailySnapshot{
		Date:   day(1),
		Values: stockValues(),
		Packed: PackedLines{OW1: 100, RGB: 50, OW2: 25, KEG: 5},
	}

	day2Values := stockValues()
	day2Values["BBT111 Level"] = "1000"
	day2Values["BBT 111 Average Plato"] = "12"
	day2Values["BBT111 Material"] = "8"
	day2 := DailySnapshot{
		Date:   day(2),
		Values: day2Values,
		Packed: PackedLines{OW1: 10},
	}

	results, err := calc.Run(context.Background(), []DailySnapshot{day1, day2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.StockStart != 0 || first.StockEnd != 0 || first.StockDelta != 0 || first.TruckTotal != 0 {
		t.Fatalf("day 1 = %+v", first)
	}
	if first.Produced != 180 {
		t.Fatalf("day 1 produced = %v, want packed total 180", first.Produced)
	}

	second := results[1]
	tankHL := hlStd(1000, 12, 11.57)
	if math.Abs(second.StockDelta-tankHL) > tolerance {
		t.Fatalf("day 2 delta = %v, want %v", second.StockDelta, tankHL)
	}
	if math.Abs(second.Produced-(10+tankHL/2)) > tolerance {
		t.Fatalf("day 2 produced = %v, want %v", second.Produced, 10+tankHL/2)
	}
}

func TestRunCarriesStockForward(t *testing.T) {
	calc := NewCalculator(WithWorkers(2))

	var snapshots []DailySnapshot
	for i := 1; i <= 6; i++ {
		values := stockValues()
		values["BBT121 Level"] = "100"
		values["BBT 121 Average Plato"] = "11"
		values["BBT121 Material"] = "8"
		values["FST112 Level "] = formatFloat(float64(i * 40))
		values["FST 112 Average Plato"] = "12.5"
		values["FST112 Material"] = "3"
		snapshots = append(snapshots, DailySnapshot{
			Date:   day(i),
			Values: values,
			Packed: PackedLines{OW1: float64(i), KEG: 2},
			Trucks: [2]TruckReading{{Level: 30, Plato: 11.8}, {Level: float64(i), Plato: 12}},
		})
	}

	results, err := calc.Run(context.Background(), snapshots)
	if err != nil {
		t.Fatal(err)
	}

	if results[0].StockStart != 0 {
		t.Fatalf("stock_start[0] = %v", results[0].StockStart)
	}
	for i, r := range results {
		if i > 0 && r.StockStart != results[i-1].StockEnd {
			t.Fatalf("day %d stock_start %v != previous stock_end %v", i, r.StockStart, results[i-1].StockEnd)
		}
		want := r.PackedTotal + r.TruckTotal/2 + r.StockDelta/2
		if math.Abs(r.Produced-want) > tolerance {
			t.Fatalf("day %d produced = %v, want %v", i, r.Produced, want)
		}
		truck := hlStd(30, 11.8, 11.57) + hlStd(float64(i+1), 12, 11.57)
		if math.Abs(r.TruckTotal-truck) > tolerance {
			t.Fatalf("day %d truck total = %v, want %v", i, r.TruckTotal, truck)
		}
	}
}

func TestRunFailsWithoutPartialResults(t *testing.T) {
	good := DailySnapshot{Date: day(1), Values: stockValues()}
	badValues := stockValues()
	badValues["BBT111 Level"] = "abc"
	bad := DailySnapshot{Date: day(2), Values: badValues}

	results, err := NewCalculator().Run(context.Background(), []DailySnapshot{good, bad})
	if err == nil {
		t.Fatal("expected error")
	}
	if results != nil {
		t.Fatalf("expected no results, got %d", len(results))
	}

	var invalid *InvalidReadingError
	if !errors.As(err, &invalid) || invalid.Source != "BBT111" || invalid.Day != "2024-03-02" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCalculator().Run(ctx, []DailySnapshot{{Date: day(1), Values: stockValues()}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRegistryValidate(t *testing.T) {
	if err := DefaultRegistry().Validate(); err != nil {
		t.Fatal(err)
	}
	dup := Registry{{Class: ClassBBT, Number: 111}, {Class: ClassBBT, Number: 111}}
	if err := dup.Validate(); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
