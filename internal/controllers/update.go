package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/services/trakt"
	"github.com/amaumene/goboxarr/internal/utils"
)

// BoxOfficeFetcher is the part of the box office client the pipeline needs
type BoxOfficeFetcher interface {
	FetchBoxOffice(ctx context.Context) ([]trakt.BoxOfficeMovie, error)
}

// LibraryClient is the part of the library client the pipeline needs
type LibraryClient interface {
	MovieFinder
	MovieAdder
	SnapshotLibrary
	BustCache()
}

// RunResult summarizes one pipeline run
type RunResult struct {
	Year         int      `json:"year"`
	Week         int      `json:"week"`
	TotalMovies  int      `json:"total_movies"`
	Matched      int      `json:"matched_movies"`
	AddedTitles  []string `json:"added_titles,omitempty"`
	SnapshotPath string   `json:"snapshot_path"`
}

// UpdateController runs the weekly box office pipeline: fetch, match,
// auto-add, snapshot, history.
type UpdateController struct {
	cfg       *config.Config
	fetcher   BoxOfficeFetcher
	library   LibraryClient
	autoAdder *AutoAdder
	snapshots *SnapshotGenerator
	history   *HistoryLog
	logger    *logrus.Logger
	now       func() time.Time
}

// NewUpdateController creates a new pipeline controller
func NewUpdateController(
	cfg *config.Config,
	fetcher BoxOfficeFetcher,
	library LibraryClient,
	autoAdder *AutoAdder,
	snapshots *SnapshotGenerator,
	history *HistoryLog,
	logger *logrus.Logger,
) *UpdateController {
	return &UpdateController{
		cfg:       cfg,
		fetcher:   fetcher,
		library:   library,
		autoAdder: autoAdder,
		snapshots: snapshots,
		history:   history,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the full pipeline for the current box office weekend. A stage
// failure aborts the run; individual auto-add failures do not.
func (u *UpdateController) Run(ctx context.Context) (*RunResult, error) {
	year, week := utils.WeekOf(u.now())
	u.logger.WithFields(logrus.Fields{
		"year": year,
		"week": week,
	}).Info("Starting box office update")

	movies, err := u.fetcher.FetchBoxOffice(ctx)
	if err != nil {
		return nil, fmt.Errorf("box office update failed during fetch: %w", err)
	}

	results, err := MatchBoxOffice(ctx, movies, u.library, u.logger)
	if err != nil {
		return nil, fmt.Errorf("box office update failed during match: %w", err)
	}

	var added []string
	if u.cfg.AutoAdd {
		candidates := u.autoAdder.FilterCandidates(results)
		added = u.autoAdder.AddCandidates(ctx, candidates)
	}

	if len(added) > 0 {
		// The library changed, so re-match against fresh data
		u.library.BustCache()
		results, err = MatchBoxOffice(ctx, movies, u.library, u.logger)
		if err != nil {
			return nil, fmt.Errorf("box office update failed during re-match: %w", err)
		}
	}

	snapshotPath, err := u.snapshots.Generate(ctx, results, year, week)
	if err != nil {
		return nil, fmt.Errorf("box office update failed during snapshot: %w", err)
	}

	record := buildHistoryRecord(results, added, year, week, snapshotPath)
	if err := u.history.Save(record); err != nil {
		return nil, fmt.Errorf("box office update failed during history log: %w", err)
	}
	if _, err := u.history.Cleanup(); err != nil {
		u.logger.WithError(err).Warn("History cleanup failed")
	}

	result := &RunResult{
		Year:         year,
		Week:         week,
		TotalMovies:  record.TotalMovies,
		Matched:      record.MatchedMovies,
		AddedTitles:  added,
		SnapshotPath: snapshotPath,
	}
	u.logger.WithFields(logrus.Fields{
		"total":   result.TotalMovies,
		"matched": result.Matched,
		"added":   len(added),
	}).Info("Box office update complete")
	return result, nil
}

// RunWeek rebuilds a stored week from its snapshot: re-match against the
// current library, auto-add when enabled, regenerate the page.
func (u *UpdateController) RunWeek(ctx context.Context, year, week int) (*RunResult, error) {
	snapshot, err := u.snapshots.Load(year, week)
	if err != nil {
		return nil, fmt.Errorf("no stored data for week %s: %w", utils.WeekID(year, week), err)
	}

	movies := moviesFromSnapshot(snapshot)
	u.library.BustCache()

	results, err := MatchBoxOffice(ctx, movies, u.library, u.logger)
	if err != nil {
		return nil, err
	}

	var added []string
	if u.cfg.AutoAdd {
		candidates := u.autoAdder.FilterCandidates(results)
		added = u.autoAdder.AddCandidates(ctx, candidates)
		if len(added) > 0 {
			u.library.BustCache()
			results, err = MatchBoxOffice(ctx, movies, u.library, u.logger)
			if err != nil {
				return nil, err
			}
		}
	}

	snapshotPath, err := u.snapshots.Generate(ctx, results, year, week)
	if err != nil {
		return nil, err
	}

	matched := 0
	for _, r := range results {
		if r.IsMatched() {
			matched++
		}
	}
	return &RunResult{
		Year:         year,
		Week:         week,
		TotalMovies:  len(results),
		Matched:      matched,
		AddedTitles:  added,
		SnapshotPath: snapshotPath,
	}, nil
}

// RegenerateWeeksWithMovie re-renders every stored week that lists the given
// title, so a manual add shows up on past pages. Returns the refreshed week
// identifiers.
func (u *UpdateController) RegenerateWeeksWithMovie(ctx context.Context, title string) ([]string, error) {
	weeks, err := u.snapshots.ListWeeks()
	if err != nil {
		return nil, err
	}

	u.library.BustCache()
	var refreshed []string
	for _, yw := range weeks {
		snapshot, err := u.snapshots.Load(yw[0], yw[1])
		if err != nil {
			continue
		}
		if !snapshotHasTitle(snapshot, title) {
			continue
		}

		results, err := MatchBoxOffice(ctx, moviesFromSnapshot(snapshot), u.library, u.logger)
		if err != nil {
			return refreshed, err
		}
		if _, err := u.snapshots.Generate(ctx, results, yw[0], yw[1]); err != nil {
			return refreshed, err
		}
		refreshed = append(refreshed, utils.WeekID(yw[0], yw[1]))
	}

	if len(refreshed) > 0 {
		u.logger.WithFields(logrus.Fields{
			"title": title,
			"weeks": refreshed,
		}).Info("Regenerated weekly pages containing movie")
	}
	return refreshed, nil
}

// moviesFromSnapshot reconstructs box office entries from a stored page
func moviesFromSnapshot(snapshot *Snapshot) []trakt.BoxOfficeMovie {
	movies := make([]trakt.BoxOfficeMovie, 0, len(snapshot.Movies))
	for _, m := range snapshot.Movies {
		movie := trakt.BoxOfficeMovie{
			Rank:          m.Rank,
			Title:         m.Title,
			Year:          m.Year,
			Revenue:       m.Revenue,
			TMDBID:        m.TMDBID,
			Overview:      m.Overview,
			Runtime:       m.Runtime,
			Certification: m.Certification,
			Rating:        m.Rating,
			Poster:        m.Poster,
		}
		if m.Genres != "" {
			movie.Genres = strings.Split(m.Genres, ", ")
		}
		movies = append(movies, movie)
	}
	return movies
}

func snapshotHasTitle(snapshot *Snapshot, title string) bool {
	for _, m := range snapshot.Movies {
		if strings.EqualFold(m.Title, title) || strings.EqualFold(m.RadarrTitle, title) {
			return true
		}
	}
	return false
}

// buildHistoryRecord summarizes match results for the history log
func buildHistoryRecord(results []MatchResult, added []string, year, week int, snapshotPath string) *HistoryRecord {
	record := &HistoryRecord{
		Year:            year,
		Week:            week,
		TotalMovies:     len(results),
		StatusBreakdown: make(map[string]int),
		AddedTitles:     added,
		SnapshotPath:    snapshotPath,
	}

	for _, result := range results {
		if result.IsMatched() {
			library := result.Library
			record.MatchedMovies++
			record.StatusBreakdown[string(library.Status)]++
			record.Matched = append(record.Matched, MatchedSummary{
				Rank:        result.BoxOffice.Rank,
				Title:       result.BoxOffice.Title,
				RadarrTitle: library.Title,
				RadarrID:    library.ID,
				TMDBID:      result.BoxOffice.TMDBID,
				Status:      string(library.Status),
				HasFile:     library.HasFile,
			})
		} else {
			record.UnmatchedMovies++
			record.Unmatched = append(record.Unmatched, UnmatchedSummary{
				Rank:   result.BoxOffice.Rank,
				Title:  result.BoxOffice.Title,
				TMDBID: result.BoxOffice.TMDBID,
			})
		}
	}
	return record
}
