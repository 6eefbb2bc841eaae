package controllers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/services/radarr"
	"github.com/amaumene/goboxarr/internal/services/trakt"
)

func newAutoAdder(t *testing.T, cfg *config.Config, library *fakeLibrary) *AutoAdder {
	t.Helper()
	selector := NewRootFolderSelector(cfg, nil, testLogger())
	adder := NewAutoAdder(cfg, library, selector, testLogger())
	adder.now = func() time.Time {
		return time.Date(2026, time.June, 12, 12, 0, 0, 0, time.UTC)
	}
	return adder
}

func unmatchedResults(movies ...trakt.BoxOfficeMovie) []MatchResult {
	results := make([]MatchResult, 0, len(movies))
	for _, m := range movies {
		results = append(results, MatchResult{BoxOffice: m})
	}
	return results
}

func TestFilterCandidatesLimitByRank(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddLimit = 2
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	// Out of rank order on purpose
	results := unmatchedResults(
		boxOfficeMovie(3, 300, "Third"),
		boxOfficeMovie(1, 100, "First"),
		boxOfficeMovie(2, 200, "Second"),
	)

	candidates := adder.FilterCandidates(results)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Rank != 1 || candidates[1].Rank != 2 {
		t.Errorf("candidate ranks = %d, %d; want 1, 2", candidates[0].Rank, candidates[1].Rank)
	}
}

func TestFilterCandidatesLimitZeroAddsNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddLimit = 0
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	results := unmatchedResults(
		boxOfficeMovie(1, 100, "First"),
		boxOfficeMovie(2, 200, "Second"),
	)

	if got := adder.FilterCandidates(results); len(got) != 0 {
		t.Errorf("got %d candidates with limit 0, want none", len(got))
	}
}

func TestFilterCandidatesSkipsMatched(t *testing.T) {
	cfg := testConfig(t)
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	results := unmatchedResults(boxOfficeMovie(1, 100, "Unmatched"))
	results = append(results, MatchResult{
		BoxOffice: boxOfficeMovie(2, 200, "Matched"),
		Library:   &radarr.Movie{ID: 1, Title: "Matched", TMDBID: 200},
	})

	candidates := adder.FilterCandidates(results)
	if len(candidates) != 1 || candidates[0].TMDBID != 100 {
		t.Errorf("candidates = %+v, want only the unmatched movie", candidates)
	}
}

func TestFilterCandidatesRereleaseBoundary(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddIgnoreRereleases = true
	adder := newAutoAdder(t, cfg, &fakeLibrary{}) // now = 2026

	current := boxOfficeMovie(1, 100, "Current")
	current.Year = 2026
	lastYear := boxOfficeMovie(2, 200, "Last Year")
	lastYear.Year = 2025
	older := boxOfficeMovie(3, 300, "Re-release")
	older.Year = 2024
	unknown := boxOfficeMovie(4, 400, "Unknown Year")

	candidates := adder.FilterCandidates(unmatchedResults(current, lastYear, older, unknown))
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}
	for _, c := range candidates {
		if c.TMDBID == 300 {
			t.Error("movie two years old must be filtered as a re-release")
		}
	}
}

func TestFilterCandidatesGenreWhitelist(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddGenreFilterEnabled = true
	cfg.AutoAddGenreFilterMode = "whitelist"
	cfg.AutoAddGenreWhitelist = []string{"Action", "Comedy"}
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	results := unmatchedResults(
		boxOfficeMovie(1, 100, "Action Movie", "Action", "Thriller"),
		boxOfficeMovie(2, 200, "Drama Movie", "Drama"),
	)

	candidates := adder.FilterCandidates(results)
	if len(candidates) != 1 || candidates[0].TMDBID != 100 {
		t.Errorf("candidates = %+v, want only the action movie", candidates)
	}
}

func TestFilterCandidatesEmptyWhitelistIsNoOp(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddGenreFilterEnabled = true
	cfg.AutoAddGenreFilterMode = "whitelist"
	cfg.AutoAddGenreWhitelist = nil
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	results := unmatchedResults(boxOfficeMovie(1, 100, "Anything", "Drama"))
	if got := len(adder.FilterCandidates(results)); got != 1 {
		t.Errorf("got %d candidates, want 1: empty whitelist filters nothing", got)
	}
}

func TestFilterCandidatesGenreBlacklist(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddGenreFilterEnabled = true
	cfg.AutoAddGenreFilterMode = "blacklist"
	cfg.AutoAddGenreBlacklist = []string{"Horror"}
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	results := unmatchedResults(
		boxOfficeMovie(1, 100, "Scary", "Horror", "Thriller"),
		boxOfficeMovie(2, 200, "Fine", "Comedy"),
	)

	candidates := adder.FilterCandidates(results)
	if len(candidates) != 1 || candidates[0].TMDBID != 200 {
		t.Errorf("candidates = %+v, want only the comedy", candidates)
	}
}

func TestFilterCandidatesUnknownGenreModeActsAsBlacklist(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddGenreFilterEnabled = true
	cfg.AutoAddGenreFilterMode = "deny"
	cfg.AutoAddGenreBlacklist = []string{"Horror"}
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	results := unmatchedResults(
		boxOfficeMovie(1, 100, "Scary", "Horror"),
		boxOfficeMovie(2, 200, "Fine", "Comedy"),
	)

	candidates := adder.FilterCandidates(results)
	if len(candidates) != 1 || candidates[0].TMDBID != 200 {
		t.Errorf("candidates = %+v, want the blacklist applied for mode %q", candidates, cfg.AutoAddGenreFilterMode)
	}
}

func TestFilterCandidatesCertificationWhitelist(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoAddRatingFilterEnabled = true
	cfg.AutoAddRatingWhitelist = []string{"PG", "PG-13"}
	adder := newAutoAdder(t, cfg, &fakeLibrary{})

	allowed := boxOfficeMovie(1, 100, "Family Friendly")
	allowed.Certification = "PG-13"
	blocked := boxOfficeMovie(2, 200, "Adults Only")
	blocked.Certification = "R"
	// No certification known yet, so the whitelist does not apply
	unrated := boxOfficeMovie(3, 300, "Unrated")

	candidates := adder.FilterCandidates(unmatchedResults(allowed, blocked, unrated))
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].TMDBID != 100 || candidates[1].TMDBID != 300 {
		t.Errorf("candidates = %+v, want the PG-13 and unrated movies", candidates)
	}
}

func TestAddCandidatesSwallowsFailures(t *testing.T) {
	cfg := testConfig(t)
	library := &fakeLibrary{addErr: map[int]error{200: errors.New("add failed")}}
	adder := newAutoAdder(t, cfg, library)

	added := adder.AddCandidates(context.Background(), []trakt.BoxOfficeMovie{
		boxOfficeMovie(1, 100, "First"),
		boxOfficeMovie(2, 200, "Fails"),
		boxOfficeMovie(3, 300, "Third"),
	})

	if len(added) != 2 {
		t.Fatalf("got %d added titles, want 2", len(added))
	}
	if len(library.addedIDs) != 2 || library.addedIDs[0] != 100 || library.addedIDs[1] != 300 {
		t.Errorf("addedIDs = %v, want [100 300]", library.addedIDs)
	}
}
