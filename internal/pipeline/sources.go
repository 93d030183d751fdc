package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/andresuchdata/produced-go/internal/tabular"
)

// ReadInputs loads the three exports from local files.
func ReadInputs(stockPath, packedPath, truckPath string) (Inputs, error) {
	stock, err := tabular.ReadFile(stockPath)
	if err != nil {
		return Inputs{}, fmt.Errorf("stock export: %w", err)
	}
	packed, err := tabular.ReadFile(packedPath)
	if err != nil {
		return Inputs{}, fmt.Errorf("packed export: %w", err)
	}
	truck, err := tabular.ReadFile(truckPath)
	if err != nil {
		return Inputs{}, fmt.Errorf("truck export: %w", err)
	}
	return Inputs{Stock: stock, Packed: packed, Truck: truck}, nil
}

// FileSource reads the exports from explicit paths.
type FileSource struct {
	StockPath  string
	PackedPath string
	TruckPath  string
}

func (s FileSource) Name() string { return "file" }

func (s FileSource) Fetch(ctx context.Context) (Inputs, error) {
	if err := ctx.Err(); err != nil {
		return Inputs{}, err
	}
	return ReadInputs(s.StockPath, s.PackedPath, s.TruckPath)
}

// LocalSource reads the exports by name from a directory.
type LocalSource struct {
	Dir    string
	Stock  string
	Packed string
	Truck  string
}

func (s LocalSource) Name() string { return "local" }

func (s LocalSource) Fetch(ctx context.Context) (Inputs, error) {
	return FileSource{
		StockPath:  filepath.Join(s.Dir, s.Stock),
		PackedPath: filepath.Join(s.Dir, s.Packed),
		TruckPath:  filepath.Join(s.Dir, s.Truck),
	}.Fetch(ctx)
}

// StaticSource hands over tables that are already in memory.
type StaticSource struct {
	Label  string
	Inputs Inputs
}

func (s StaticSource) Name() string {
	if s.Label == "" {
		return "upload"
	}
	return s.Label
}

func (s StaticSource) Fetch(ctx context.Context) (Inputs, error) {
	return s.Inputs, ctx.Err()
}
