package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/pipeline"
)

// Source fetches the newest stock, packed and truck exports from a Drive
// folder. Exports are matched by the stem of the configured file names, so
// "stock.csv" also picks up "stock_2024-03-05.xlsx".
type Source struct {
	Files    Files
	FolderID string
	// Dir receives the downloads; a temporary directory is used when empty.
	Dir string

	Stock  string
	Packed string
	Truck  string
}

func (s *Source) Name() string { return "drive" }

func (s *Source) Fetch(ctx context.Context) (pipeline.Inputs, error) {
	files, err := s.Files.ListFiles(ctx, s.FolderID)
	if err != nil {
		return pipeline.Inputs{}, err
	}

	latest, err := Latest(files, s.Stock, s.Packed, s.Truck)
	if err != nil {
		return pipeline.Inputs{}, err
	}

	dir := s.Dir
	if dir == "" {
		if dir, err = os.MkdirTemp("", "produced-drive-"); err != nil {
			return pipeline.Inputs{}, fmt.Errorf("failed to create download dir: %w", err)
		}
		defer os.RemoveAll(dir)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return pipeline.Inputs{}, fmt.Errorf("failed to create download dir: %w", err)
	}

	paths := make(map[string]string, len(latest))
	for name, f := range latest {
		dest := filepath.Join(dir, f.Name)
		if err := s.download(ctx, f, dest); err != nil {
			return pipeline.Inputs{}, err
		}
		log.Info().Str("file", f.Name).Str("id", f.ID).Msg("drive export downloaded")
		paths[name] = dest
	}

	return pipeline.ReadInputs(paths[s.Stock], paths[s.Packed], paths[s.Truck])
}

func (s *Source) download(ctx context.Context, f *File, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", dest, err)
	}
	if err := s.Files.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}

// Latest picks, for each wanted name, the most recently modified tabular file
// whose name starts with the wanted stem.
func Latest(files []*File, names ...string) (map[string]*File, error) {
	candidates := make([]*File, 0, len(files))
	for _, f := range files {
		if f.MimeType != folderMimeType && isTabular(f.Name) {
			candidates = append(candidates, f)
		}
	}
	// RFC 3339 timestamps from Drive order lexically.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ModifiedTime != candidates[j].ModifiedTime {
			return candidates[i].ModifiedTime > candidates[j].ModifiedTime
		}
		return candidates[i].Name > candidates[j].Name
	})

	out := make(map[string]*File, len(names))
	for _, name := range names {
		stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		for _, f := range candidates {
			if strings.HasPrefix(strings.ToLower(f.Name), stem) {
				out[name] = f
				break
			}
		}
		if out[name] == nil {
			return nil, fmt.Errorf("no drive file matching %s", name)
		}
	}
	return out, nil
}

func isTabular(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}
