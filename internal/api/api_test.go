package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/produced-go/internal/domain"
	"github.com/andresuchdata/produced-go/internal/pipeline"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	stockCSV = "Time,BBT 111 Average Plato,BBT111 Level,BBT111 Material\n" +
		"2024-03-01,0,0,0\n" +
		"2024-03-02,12,1000,8\n"
	packedCSV = "Timestamp,Packed OW1,Packed RGB,Packed OW2,Packed KEG\n" +
		"2024-03-01 06:00:00,100,50,25,5\n"
	truckCSV = "Timestamp,Truck1 Level,Truck1 Plato,Truck2 Level,Truck2 Plato\n" +
		"2024-03-02 06:00:00,0,0,0,0\n"
)

type memRepo struct {
	days []domain.ProducedDay
}

func (m *memRepo) SaveDailyResults(ctx context.Context, runID *int64, days []domain.ProducedDay) error {
	m.days = append(m.days, days...)
	return nil
}

func (m *memRepo) ListDailyResults(ctx context.Context, r domain.DateRange) ([]domain.ProducedDay, error) {
	return m.days, nil
}

func (m *memRepo) DeleteDailyResults(ctx context.Context, r domain.DateRange) (int64, error) {
	return 0, nil
}

type memRuns struct {
	runs []*pipeline.Run
}

func (m *memRuns) GetRun(ctx context.Context, id int64) (*pipeline.Run, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memRuns) ListRuns(ctx context.Context, limit int) ([]*pipeline.Run, error) {
	return m.runs, nil
}

func (m *memRuns) GetRunStats(ctx context.Context, since time.Time) (*pipeline.RunStats, error) {
	return &pipeline.RunStats{Runs: int64(len(m.runs))}, nil
}

func newTestRouter(t *testing.T, services *Services) *gin.Engine {
	t.Helper()
	if services == nil {
		calc := produced.NewCalculator(produced.WithRegistry(produced.Registry{{Class: produced.ClassBBT, Number: 111}}))
		repo := &memRepo{days: []domain.ProducedDay{
			{Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), Produced: 180, PackedTotal: 180},
		}}
		services = &Services{
			Produced: service.NewProducedService(repo, nil, pipeline.NewRunner(calc)),
			Runs:     &memRuns{runs: []*pipeline.Run{{ID: 3, Source: "local", Status: pipeline.StatusCompleted}}},
		}
	}
	return NewRouter(services, Options{MaxUploadBytes: 1 << 20})
}

func upload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &Services{Ping: func(ctx context.Context) error { return errors.New("down") }})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	router = newTestRouter(t, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReadEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{name: "daily", target: "/api/v1/produced/daily?from=2024-03-01", wantCode: http.StatusOK, wantBody: `"count":1`},
		{name: "daily bad date", target: "/api/v1/produced/daily?from=01-03-2024", wantCode: http.StatusBadRequest},
		{name: "daily inverted range", target: "/api/v1/produced/daily?from=2024-03-05&to=2024-03-01", wantCode: http.StatusBadRequest},
		{name: "summary", target: "/api/v1/produced/summary", wantCode: http.StatusOK, wantBody: `"produced_total":180`},
		{name: "weekly", target: "/api/v1/produced/weekly", wantCode: http.StatusOK, wantBody: `"week":"2024-W09"`},
		{name: "materials", target: "/api/v1/produced/materials", wantCode: http.StatusOK, wantBody: `"standard_degree":11.57`},
		{name: "hlstd", target: "/api/v1/produced/hlstd?volume=0&plato=12&material=8", wantCode: http.StatusOK, wantBody: `"hl_std":0`},
		{name: "hlstd unknown material", target: "/api/v1/produced/hlstd?volume=10&plato=12&material=99", wantCode: http.StatusUnprocessableEntity},
		{name: "breakdown missing day", target: "/api/v1/produced/daily/2024-03-09/breakdown", wantCode: http.StatusNotFound},
		{name: "export csv", target: "/api/v1/produced/export?format=csv", wantCode: http.StatusOK, wantBody: "Produced"},
		{name: "export unknown", target: "/api/v1/produced/export?format=docx", wantCode: http.StatusBadRequest},
		{name: "runs", target: "/api/v1/produced/runs", wantCode: http.StatusOK, wantBody: `"id":3`},
		{name: "run", target: "/api/v1/produced/runs/3", wantCode: http.StatusOK, wantBody: `"status":"completed"`},
		{name: "run absent", target: "/api/v1/produced/runs/4", wantCode: http.StatusNotFound},
		{name: "run stats", target: "/api/v1/produced/runs/stats", wantCode: http.StatusOK, wantBody: `"runs":1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body %s does not contain %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDeleteDaily(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		target   string
		wantCode int
	}{
		{target: "/api/v1/produced/daily?from=2024-03-01", wantCode: http.StatusBadRequest},
		{target: "/api/v1/produced/daily?from=2024-03-01&to=2024-03-02", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, tt.target, nil))
		if rec.Code != tt.wantCode {
			t.Fatalf("DELETE %s: status = %d, want %d", tt.target, rec.Code, tt.wantCode)
		}
	}
}

func TestCalculate(t *testing.T) {
	router := newTestRouter(t, nil)

	body, contentType := upload(t, map[string]string{"stock": stockCSV, "packed": packedCSV, "truck": truckCSV})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/produced/calculate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data []domain.ProducedDay `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 || resp.Data[0].Produced != 180 {
		t.Fatalf("data = %+v", resp.Data)
	}
}

func TestCalculateErrors(t *testing.T) {
	router := newTestRouter(t, nil)

	badMaterial := strings.Replace(stockCSV, "12,1000,8", "12,1000,99", 1)
	tests := []struct {
		name     string
		files    map[string]string
		wantCode int
		wantBody string
	}{
		{name: "missing truck", files: map[string]string{"stock": stockCSV, "packed": packedCSV}, wantCode: http.StatusBadRequest},
		{name: "unknown material", files: map[string]string{"stock": badMaterial, "packed": packedCSV, "truck": truckCSV}, wantCode: http.StatusUnprocessableEntity, wantBody: "BBT111"},
		{name: "packed without columns", files: map[string]string{"stock": stockCSV, "packed": "Timestamp,Other\n2024-03-01,1\n", "truck": truckCSV}, wantCode: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := upload(t, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/produced/calculate", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body %s does not contain %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDriveMount(t *testing.T) {
	drive := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(r.URL.Path))
	})
	router := newTestRouter(t, &Services{Drive: drive})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "/api/drive/files" {
		t.Fatalf("drive handler got %d %s", rec.Code, rec.Body.String())
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	if all || len(origins) != 2 {
		t.Fatalf("origins = %v, all = %v", origins, all)
	}
	if _, all := normalizeAllowedOrigins([]string{"*"}); !all {
		t.Fatal("* must allow all origins")
	}
}
