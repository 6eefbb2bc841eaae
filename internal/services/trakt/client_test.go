package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(&config.Config{
		TraktClientID: "test-client-id",
		TraktAPIURL:   serverURL,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client.retryInterval = time.Millisecond
	return client
}

func boxOfficeJSON(count int) []byte {
	entries := make([]map[string]interface{}, 0, count)
	for i := 1; i <= count; i++ {
		entries = append(entries, map[string]interface{}{
			"revenue": 1000000 * i,
			"movie": map[string]interface{}{
				"title": fmt.Sprintf("Movie %d", i),
				"year":  2026,
				"ids": map[string]interface{}{
					"trakt": i,
					"slug":  fmt.Sprintf("movie-%d", i),
					"imdb":  fmt.Sprintf("tt%07d", i),
					"tmdb":  10000 + i,
				},
				"genres": []string{"action"},
			},
		})
	}
	data, _ := json.Marshal(entries)
	return data
}

func TestFetchBoxOffice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("trakt-api-version"); got != "2" {
			t.Errorf("trakt-api-version = %q, want %q", got, "2")
		}
		if got := r.Header.Get("trakt-api-key"); got != "test-client-id" {
			t.Errorf("trakt-api-key = %q, want %q", got, "test-client-id")
		}
		if got := r.URL.Query().Get("extended"); got != "full" {
			t.Errorf("extended = %q, want %q", got, "full")
		}
		w.Write(boxOfficeJSON(5))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	movies, err := client.FetchBoxOffice(context.Background())
	if err != nil {
		t.Fatalf("FetchBoxOffice() error = %v", err)
	}
	if len(movies) != 5 {
		t.Fatalf("got %d movies, want 5", len(movies))
	}
	for i, m := range movies {
		if m.Rank != i+1 {
			t.Errorf("movies[%d].Rank = %d, want %d", i, m.Rank, i+1)
		}
	}
	if movies[0].Title != "Movie 1" || movies[0].TMDBID != 10001 {
		t.Errorf("unexpected first movie: %+v", movies[0])
	}
}

func TestFetchBoxOfficeCapsAtTen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(boxOfficeJSON(15))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	movies, err := client.FetchBoxOffice(context.Background())
	if err != nil {
		t.Fatalf("FetchBoxOffice() error = %v", err)
	}
	if len(movies) != 10 {
		t.Fatalf("got %d movies, want 10", len(movies))
	}
	if movies[9].Rank != 10 {
		t.Errorf("last rank = %d, want 10", movies[9].Rank)
	}
}

func TestFetchBoxOfficeSkipsMissingTMDBID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := []map[string]interface{}{
			{
				"revenue": 3000000,
				"movie": map[string]interface{}{
					"title": "First",
					"ids":   map[string]interface{}{"tmdb": 111},
				},
			},
			{
				"revenue": 2000000,
				"movie": map[string]interface{}{
					"title": "No TMDB",
					"ids":   map[string]interface{}{"tmdb": nil},
				},
			},
			{
				"revenue": 1000000,
				"movie": map[string]interface{}{
					"title": "Third",
					"ids":   map[string]interface{}{"tmdb": 333},
				},
			},
		}
		json.NewEncoder(w).Encode(entries)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	movies, err := client.FetchBoxOffice(context.Background())
	if err != nil {
		t.Fatalf("FetchBoxOffice() error = %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("got %d movies, want 2", len(movies))
	}
	// Ranks are dense over kept entries, the skipped entry leaves no gap
	if movies[0].Rank != 1 || movies[1].Rank != 2 {
		t.Errorf("ranks = %d, %d; want 1, 2", movies[0].Rank, movies[1].Rank)
	}
	if movies[1].Title != "Third" {
		t.Errorf("second movie = %q, want %q", movies[1].Title, "Third")
	}
}

func TestFetchBoxOfficeRetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(boxOfficeJSON(3))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	movies, err := client.FetchBoxOffice(context.Background())
	if err != nil {
		t.Fatalf("FetchBoxOffice() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
	if len(movies) != 3 {
		t.Errorf("got %d movies, want 3", len(movies))
	}
}

func TestFetchBoxOfficeFailsAfterThreeAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.FetchBoxOffice(context.Background())
	if err == nil {
		t.Fatal("FetchBoxOffice() error = nil, want error")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("error type = %T, want *FetchError", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestFetchBoxOfficeEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.FetchBoxOffice(context.Background())
	if err == nil {
		t.Fatal("FetchBoxOffice() error = nil, want error")
	}
	if !errors.Is(err, ErrNoMovies) {
		t.Errorf("errors.Is(err, ErrNoMovies) = false, err = %v", err)
	}
}

func TestNewClientRequiresClientID(t *testing.T) {
	_, err := NewClient(&config.Config{TraktAPIURL: "https://api.trakt.tv"}, testLogger())
	if err == nil {
		t.Fatal("NewClient() error = nil, want error")
	}
}
