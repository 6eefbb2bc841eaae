package controllers

import (
	"context"
	"testing"

	"github.com/amaumene/goboxarr/internal/services/radarr"
	"github.com/amaumene/goboxarr/internal/services/trakt"
)

type countingFinder struct {
	fakeLibrary
	lookedUp []int
}

func (c *countingFinder) GetMovieByTMDBID(ctx context.Context, tmdbID int) (*radarr.Movie, error) {
	c.lookedUp = append(c.lookedUp, tmdbID)
	return c.fakeLibrary.GetMovieByTMDBID(ctx, tmdbID)
}

func TestMatchBoxOfficePreservesOrder(t *testing.T) {
	finder := &countingFinder{fakeLibrary: fakeLibrary{
		movies: []radarr.Movie{
			{ID: 1, Title: "Second In Library", TMDBID: 200},
		},
	}}

	movies := []trakt.BoxOfficeMovie{
		boxOfficeMovie(1, 100, "First"),
		boxOfficeMovie(2, 200, "Second"),
		boxOfficeMovie(3, 300, "Third"),
	}

	results, err := MatchBoxOffice(context.Background(), movies, finder, testLogger())
	if err != nil {
		t.Fatalf("MatchBoxOffice() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	for i, r := range results {
		if r.BoxOffice.Rank != i+1 {
			t.Errorf("results[%d].Rank = %d, want %d", i, r.BoxOffice.Rank, i+1)
		}
	}
	if results[0].IsMatched() || results[2].IsMatched() {
		t.Error("unexpected match for movies not in library")
	}
	if !results[1].IsMatched() || results[1].Library.ID != 1 {
		t.Errorf("results[1] not matched to library movie: %+v", results[1].Library)
	}
}

func TestMatchBoxOfficeSkipsLookupWithoutTMDBID(t *testing.T) {
	finder := &countingFinder{}

	movies := []trakt.BoxOfficeMovie{
		{Rank: 1, Title: "No ID"},
		boxOfficeMovie(2, 200, "Has ID"),
	}

	results, err := MatchBoxOffice(context.Background(), movies, finder, testLogger())
	if err != nil {
		t.Fatalf("MatchBoxOffice() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if len(finder.lookedUp) != 1 || finder.lookedUp[0] != 200 {
		t.Errorf("lookups = %v, want [200]", finder.lookedUp)
	}
	if results[0].IsMatched() {
		t.Error("entry without TMDB ID must stay unmatched")
	}
}
