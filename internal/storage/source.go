package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/produced-go/internal/pipeline"
)

// Source pulls the newest stock, packed and truck exports under Prefix.
type Source struct {
	Storage ObjectStorage
	Prefix  string
	// Dir receives the downloads; a temporary directory is used when empty.
	Dir string

	Stock  string
	Packed string
	Truck  string
}

func (s *Source) Name() string { return "storage" }

func (s *Source) Fetch(ctx context.Context) (pipeline.Inputs, error) {
	objects, err := s.Storage.ListObjects(ctx, s.Prefix)
	if err != nil {
		return pipeline.Inputs{}, fmt.Errorf("list %s: %w", s.Prefix, err)
	}

	keys, err := FindLatest(objects, s.Stock, s.Packed, s.Truck)
	if err != nil {
		return pipeline.Inputs{}, err
	}

	dir := s.Dir
	if dir == "" {
		if dir, err = os.MkdirTemp("", "produced-storage-"); err != nil {
			return pipeline.Inputs{}, fmt.Errorf("failed to create download dir: %w", err)
		}
		defer os.RemoveAll(dir)
	}

	paths, err := DownloadAll(ctx, s.Storage, dir, keys)
	if err != nil {
		return pipeline.Inputs{}, err
	}

	return pipeline.ReadInputs(paths[s.Stock], paths[s.Packed], paths[s.Truck])
}
