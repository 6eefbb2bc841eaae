package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/controllers"
	"github.com/amaumene/goboxarr/internal/services/radarr"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type stubLibrary struct{}

func (stubLibrary) GetQualityProfiles(ctx context.Context) ([]radarr.QualityProfile, error) {
	return []radarr.QualityProfile{{ID: 1, Name: "HD-1080p"}}, nil
}

func (stubLibrary) LookupMovieByTMDBID(ctx context.Context, tmdbID int) (*radarr.Movie, error) {
	return nil, nil
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestBoxOfficeHistoryHandler(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir()}
	snapshots := controllers.NewSnapshotGenerator(cfg, stubLibrary{}, testLogger())
	if _, err := snapshots.Generate(context.Background(), nil, 2026, 7); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	handler := NewBoxOfficeHandler(snapshots, testLogger())

	rec := httptest.NewRecorder()
	handler.History(rec, httptest.NewRequest(http.MethodGet, "/api/boxoffice/history/2026/7", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var snapshot controllers.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snapshot.Year != 2026 || snapshot.Week != 7 {
		t.Errorf("snapshot week = %dW%d, want 2026W7", snapshot.Year, snapshot.Week)
	}

	// Unknown week is a structured 404
	rec = httptest.NewRecorder()
	handler.History(rec, httptest.NewRequest(http.MethodGet, "/api/boxoffice/history/2020/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var errResp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("invalid error JSON: %v", err)
	}
	if errResp.Success || errResp.Message == "" {
		t.Errorf("error body = %+v, want success=false with message", errResp)
	}

	// Malformed path
	rec = httptest.NewRecorder()
	handler.History(rec, httptest.NewRequest(http.MethodGet, "/api/boxoffice/history/notayear/7", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
