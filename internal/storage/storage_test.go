package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for k, v := range m.objects {
		out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
	}
	return out, nil
}

func (m *memStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return os.WriteFile(destPath, m.objects[key], 0o644)
}

func (m *memStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	m.objects[key] = data
	return nil
}

func (m *memStorage) DeleteObject(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestFindLatest(t *testing.T) {
	objects := []ObjectInfo{
		{Key: "exports/stock_20240301.csv"},
		{Key: "exports/stock_20240302.csv"},
		{Key: "exports/packed_20240302.xlsx"},
		{Key: "exports/cisterne_20240302.csv"},
		{Key: "exports/stock_notes.txt"},
	}

	got, err := FindLatest(objects, "stock.csv", "packed.csv", "cisterne.csv")
	if err != nil {
		t.Fatal(err)
	}
	if got["stock.csv"] != "exports/stock_20240302.csv" {
		t.Fatalf("stock = %s", got["stock.csv"])
	}
	if got["packed.csv"] != "exports/packed_20240302.xlsx" {
		t.Fatalf("packed = %s", got["packed.csv"])
	}

	if _, err := FindLatest(objects, "truck.csv"); err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestDownloadAll(t *testing.T) {
	s := &memStorage{objects: map[string][]byte{"exports/stock_1.csv": []byte("Time\n")}}
	dir := filepath.Join(t.TempDir(), "in")

	paths, err := DownloadAll(context.Background(), s, dir, map[string]string{"stock.csv": "exports/stock_1.csv"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(paths["stock.csv"])
	if err != nil || string(data) != "Time\n" {
		t.Fatalf("downloaded %q, %v", data, err)
	}
}

func TestContentType(t *testing.T) {
	if contentType("a/b.PDF") != "application/pdf" || contentType("x.bin") != "application/octet-stream" {
		t.Fatal("unexpected content types")
	}
}

func TestS3Config(t *testing.T) {
	tests := []struct {
		cfg     S3Config
		wantURL string
		wantErr bool
	}{
		{cfg: S3Config{Endpoint: "s3.local:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"}, wantURL: "http://s3.local:9000"},
		{cfg: S3Config{Endpoint: "s3.local", AccessKey: "a", SecretKey: "s", Bucket: "b", UseSSL: true}, wantURL: "https://s3.local"},
		{cfg: S3Config{Endpoint: "https://s3.example.com", AccessKey: "a", SecretKey: "s", Bucket: "b"}, wantURL: "https://s3.example.com"},
		{cfg: S3Config{Endpoint: "s3.local", Bucket: "b"}, wantErr: true},
	}
	for _, tt := range tests {
		err := tt.cfg.validate()
		if (err != nil) != tt.wantErr {
			t.Fatalf("validate(%+v) = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
		if !tt.wantErr && tt.cfg.url() != tt.wantURL {
			t.Fatalf("url = %s, want %s", tt.cfg.url(), tt.wantURL)
		}
	}
}

func TestSourceFetch(t *testing.T) {
	s := &memStorage{objects: map[string][]byte{
		"exports/stock_20240301.csv": []byte("Time,BBT111 Level\n2024-03-01,1\n"),
		"exports/stock_20240302.csv": []byte("Time,BBT111 Level\n2024-03-02,2\n"),
		"exports/packed.csv":         []byte("Timestamp,Packed OW1\n2024-03-02 06:00,3\n"),
		"exports/truck.csv":          []byte("Timestamp,Truck1 Level\n2024-03-02 06:00,4\n"),
	}}
	src := &Source{Storage: s, Prefix: "exports/", Stock: "stock.csv", Packed: "packed.csv", Truck: "truck.csv"}

	in, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := in.Stock.Value(0, "BBT111 Level"); got != "2" {
		t.Fatalf("stock level = %s, want the newest export", got)
	}
	if in.Truck.Value(0, "Truck1 Level") != "4" {
		t.Fatalf("truck = %+v", in.Truck)
	}
}
