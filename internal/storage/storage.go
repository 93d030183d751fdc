package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/produced-go/internal/config"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the pipeline needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
	DeleteObject(ctx context.Context, key string) error
}

// Backends selectable with STORAGE_BACKEND.
const (
	BackendMinio = "minio"
	BackendS3    = "s3"
)

// New builds the configured backend.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMinio:
		return NewMinioClient(ctx, MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	case BackendS3:
		return NewS3Client(S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// FindLatest returns, for each wanted base name, the newest key under prefix
// whose base name starts with it. Keys sort lexically, so date-stamped exports
// resolve to the most recent one.
func FindLatest(objects []ObjectInfo, names ...string) (map[string]string, error) {
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(names))
	for _, name := range names {
		stem := strings.TrimSuffix(name, path.Ext(name))
		for _, key := range keys {
			base := path.Base(key)
			if strings.HasPrefix(base, stem) && isTabular(base) {
				out[name] = key
			}
		}
		if _, ok := out[name]; !ok {
			return nil, fmt.Errorf("no object matching %s", name)
		}
	}
	return out, nil
}

// DownloadAll downloads keys into dir, keeping their base names.
func DownloadAll(ctx context.Context, s ObjectStorage, dir string, keys map[string]string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating directory %s: %w", dir, err)
	}
	paths := make(map[string]string, len(keys))
	for name, key := range keys {
		dest := filepath.Join(dir, path.Base(key))
		if err := s.DownloadObject(ctx, key, dest); err != nil {
			return nil, fmt.Errorf("download %s: %w", key, err)
		}
		paths[name] = dest
	}
	return paths, nil
}

func isTabular(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
