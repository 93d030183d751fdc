package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/report"
)

// Export kinds.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
	ExportPDF  = "pdf"
)

// Uploader stores rendered exports remotely; storage.ObjectStorage
// implements it.
type Uploader interface {
	UploadObject(ctx context.Context, key string, data []byte) error
	DeleteObject(ctx context.Context, key string) error
}

// Exporter renders results into files under Dir and optionally uploads them.
type Exporter struct {
	Dir    string
	Kinds  []string
	Format report.Format

	Uploader Uploader
	Prefix   string
}

// RenderedFile is an export held in memory until it is written.
type RenderedFile struct {
	Name string
	Data []byte
}

// Export renders every kind, then writes them. Nothing is written when a
// kind fails to render.
func (e *Exporter) Export(ctx context.Context, results []produced.DailyResult, at time.Time) ([]string, error) {
	rendered, err := e.Prepare(results, at)
	if err != nil {
		return nil, err
	}
	return e.Write(ctx, rendered)
}

// Prepare renders one file per kind, named after the run's start time. It
// touches neither the disk nor the uploader.
func (e *Exporter) Prepare(results []produced.DailyResult, at time.Time) ([]RenderedFile, error) {
	kinds := e.Kinds
	if len(kinds) == 0 {
		kinds = []string{ExportCSV}
	}
	stamp := at.Format("20060102_150405")

	out := make([]RenderedFile, 0, len(kinds))
	for _, kind := range kinds {
		var buf bytes.Buffer
		if err := Render(&buf, kind, results, e.Format, at); err != nil {
			return nil, fmt.Errorf("render %s: %w", kind, err)
		}
		out = append(out, RenderedFile{
			Name: fmt.Sprintf("produced_%s.%s", stamp, strings.ToLower(kind)),
			Data: buf.Bytes(),
		})
	}
	return out, nil
}

// Write stores rendered files under Dir, then uploads them. On any failure
// the files and objects written so far are removed.
func (e *Exporter) Write(ctx context.Context, rendered []RenderedFile) ([]string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating output dir %s: %w", e.Dir, err)
	}

	var (
		files []string
		keys  []string
	)
	fail := func(err error) ([]string, error) {
		e.remove(ctx, files, keys)
		return nil, err
	}

	for _, r := range rendered {
		dest := filepath.Join(e.Dir, r.Name)
		if err := os.WriteFile(dest, r.Data, 0o644); err != nil {
			return fail(fmt.Errorf("failed writing %s: %w", dest, err))
		}
		files = append(files, dest)
	}

	if e.Uploader != nil {
		for _, r := range rendered {
			key := e.key(r.Name)
			if err := e.Uploader.UploadObject(ctx, key, r.Data); err != nil {
				return fail(fmt.Errorf("upload %s: %w", key, err))
			}
			keys = append(keys, key)
		}
	}

	for _, f := range files {
		log.Info().Str("file", f).Msg("export written")
	}
	for _, k := range keys {
		log.Info().Str("key", k).Msg("export uploaded")
	}
	return files, nil
}

// Discard removes files returned by Write along with their uploaded copies.
func (e *Exporter) Discard(ctx context.Context, files []string) {
	var keys []string
	if e.Uploader != nil {
		for _, f := range files {
			keys = append(keys, e.key(filepath.Base(f)))
		}
	}
	e.remove(ctx, files, keys)
}

func (e *Exporter) key(name string) string {
	return path.Join(e.Prefix, "results", name)
}

func (e *Exporter) remove(ctx context.Context, files, keys []string) {
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("file", f).Msg("failed to remove partial export")
		}
	}
	if len(keys) == 0 {
		return
	}
	// ctx may already be cancelled.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	for _, k := range keys {
		if err := e.Uploader.DeleteObject(dctx, k); err != nil {
			log.Error().Err(err).Str("key", k).Msg("failed to remove partial upload")
		}
	}
}

// Render writes results in the given export kind.
func Render(w io.Writer, kind string, results []produced.DailyResult, f report.Format, at time.Time) error {
	switch strings.ToLower(kind) {
	case ExportCSV:
		return report.WriteCSV(w, results, f)
	case ExportXLSX:
		return report.WriteXLSX(w, results)
	case ExportPDF:
		return report.WritePDF(w, results, report.PDFOptions{GeneratedAt: at, Format: f})
	default:
		return fmt.Errorf("unknown export format %q", kind)
	}
}

// ParseKinds splits "csv,xlsx" into export kinds.
func ParseKinds(raw string) ([]string, error) {
	var kinds []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		switch k {
		case ExportCSV, ExportXLSX, ExportPDF:
			kinds = append(kinds, k)
		default:
			return nil, fmt.Errorf("unknown export format %q", k)
		}
	}
	return kinds, nil
}
