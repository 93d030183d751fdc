package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chartmuseum/storage"
)

const defaultRegion = "us-east-1"

// S3Config encapsulates the connection info for S3-compatible storage.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

func (c S3Config) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"endpoint":   c.Endpoint,
		"access key": c.AccessKey,
		"secret key": c.SecretKey,
		"bucket":     c.Bucket,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("s3 config incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// url adds a scheme to bare host:port endpoints.
func (c S3Config) url() string {
	if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
		return c.Endpoint
	}
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + strings.TrimPrefix(c.Endpoint, "//")
}

// S3Client implements ObjectStorage on chartmuseum's Amazon backend. The
// backend takes credentials from the AWS environment only.
type S3Client struct {
	backend storage.Backend
}

func NewS3Client(cfg S3Config) (*S3Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	for key, value := range map[string]string{
		"AWS_ACCESS_KEY_ID":     cfg.AccessKey,
		"AWS_SECRET_ACCESS_KEY": cfg.SecretKey,
		"AWS_REGION":            region,
		"AWS_DEFAULT_REGION":    region,
	} {
		if err := os.Setenv(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}

	pathStyle := true
	backend := storage.NewAmazonS3BackendWithOptions(cfg.Bucket, "", region, cfg.url(), "",
		&storage.AmazonS3Options{S3ForcePathStyle: &pathStyle})

	return &S3Client{backend: backend}, nil
}

// ListObjects lists every object under prefix with its full key.
func (c *S3Client) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	objects, err := c.backend.ListObjects(prefix)
	if err != nil {
		return nil, fmt.Errorf("s3 list %s: %w", prefix, err)
	}

	out := make([]ObjectInfo, 0, len(objects))
	for _, o := range objects {
		out = append(out, ObjectInfo{Key: path.Join(prefix, o.Path), Size: int64(len(o.Content))})
	}
	return out, nil
}

func (c *S3Client) DownloadObject(ctx context.Context, key, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o, err := c.backend.GetObject(key)
	if err != nil {
		return fmt.Errorf("s3 get %s: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", destPath, err)
	}
	return os.WriteFile(destPath, o.Content, 0o644)
}

func (c *S3Client) UploadObject(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.backend.PutObject(key, data); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (c *S3Client) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.backend.DeleteObject(key); err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

var _ ObjectStorage = (*S3Client)(nil)
