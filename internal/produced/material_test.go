package produced

import (
	"errors"
	"testing"
)

func TestMaterialLookup(t *testing.T) {
	m := DefaultMaterials()

	deg, err := m.Lookup(8)
	if err != nil || deg != 11.57 {
		t.Fatalf("Lookup(8) = %v, %v; want 11.57", deg, err)
	}

	deg, err = m.Lookup(0)
	if err != nil || deg != 0 {
		t.Fatalf("Lookup(0) = %v, %v; want 0 sentinel", deg, err)
	}

	_, err = m.Lookup(99)
	var unknown *UnknownMaterialError
	if !errors.As(err, &unknown) || unknown.Code != 99 {
		t.Fatalf("Lookup(99) error = %v, want UnknownMaterialError{99}", err)
	}
}

func TestMaterialProfiles(t *testing.T) {
	std := DefaultMaterials()
	if _, ok := std[18]; ok {
		t.Fatal("standard profile must not carry code 18")
	}
	if len(std) != 13 {
		t.Fatalf("standard profile has %d entries, want 13", len(std))
	}

	report, err := MaterialsForProfile("report")
	if err != nil {
		t.Fatal(err)
	}
	if report[18] != 11.68 {
		t.Fatalf("report profile code 18 = %v, want 11.68", report[18])
	}

	if _, err := MaterialsForProfile("legacy"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestMaterialWithDoesNotMutate(t *testing.T) {
	base := DefaultMaterials()
	extended := base.With(map[int]float64{40: 11.2})

	if _, ok := base[40]; ok {
		t.Fatal("With modified the receiver")
	}
	if extended[40] != 11.2 {
		t.Fatalf("extended[40] = %v", extended[40])
	}
}

func TestParseMaterialOverrides(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[int]float64
		wantErr bool
	}{
		{name: "empty", raw: "", want: map[int]float64{}},
		{name: "two entries", raw: "18=11.68, 40=11.2", want: map[int]float64{18: 11.68, 40: 11.2}},
		{name: "missing separator", raw: "18", wantErr: true},
		{name: "bad code", raw: "x=1", wantErr: true},
		{name: "bad degree", raw: "18=abc", wantErr: true},
		{name: "sentinel redefined", raw: "0=11", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMaterialOverrides(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for code, deg := range tt.want {
				if got[code] != deg {
					t.Fatalf("code %d = %v, want %v", code, got[code], deg)
				}
			}
		})
	}
}
