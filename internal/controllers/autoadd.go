package controllers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/services/radarr"
	"github.com/amaumene/goboxarr/internal/services/trakt"
	"github.com/amaumene/goboxarr/internal/utils"
)

// MovieAdder is the part of the library client the auto-adder needs
type MovieAdder interface {
	AddMovie(ctx context.Context, tmdbID int, opts radarr.AddMovieOptions) (*radarr.Movie, error)
}

// AutoAdder adds unmatched box office movies to Radarr, subject to the
// configured filters.
type AutoAdder struct {
	cfg      *config.Config
	adder    MovieAdder
	selector *RootFolderSelector
	logger   *logrus.Logger
	now      func() time.Time
}

// NewAutoAdder creates a new auto-adder
func NewAutoAdder(cfg *config.Config, adder MovieAdder, selector *RootFolderSelector, logger *logrus.Logger) *AutoAdder {
	return &AutoAdder{
		cfg:      cfg,
		adder:    adder,
		selector: selector,
		logger:   logger,
		now:      time.Now,
	}
}

// FilterCandidates selects the unmatched movies eligible for auto-add.
// The limit applies first over rank order, then the re-release, genre and
// certification filters drop ineligible titles, so a run can add fewer than
// the limit.
func (a *AutoAdder) FilterCandidates(results []MatchResult) []trakt.BoxOfficeMovie {
	var unmatched []trakt.BoxOfficeMovie
	for _, r := range results {
		if !r.IsMatched() {
			unmatched = append(unmatched, r.BoxOffice)
		}
	}

	sort.Slice(unmatched, func(i, j int) bool {
		return unmatched[i].Rank < unmatched[j].Rank
	})
	if limit := a.cfg.AutoAddLimit; len(unmatched) > limit {
		if limit < 0 {
			limit = 0
		}
		unmatched = unmatched[:limit]
	}

	var candidates []trakt.BoxOfficeMovie
	for _, movie := range unmatched {
		if reason := a.rejectReason(movie); reason != "" {
			a.logger.WithFields(logrus.Fields{
				"title":  movie.Title,
				"reason": reason,
			}).Info("Skipping auto-add")
			continue
		}
		candidates = append(candidates, movie)
	}
	return candidates
}

// rejectReason returns why a movie is ineligible for auto-add, or empty when
// it passes every filter.
func (a *AutoAdder) rejectReason(movie trakt.BoxOfficeMovie) string {
	if a.cfg.AutoAddIgnoreRereleases {
		currentYear, _ := utils.WeekOf(a.now())
		if movie.Year != 0 && movie.Year < currentYear-1 {
			return "re-release"
		}
	}

	if a.cfg.AutoAddGenreFilterEnabled {
		switch a.cfg.AutoAddGenreFilterMode {
		case "whitelist":
			// An empty whitelist filters nothing
			if len(a.cfg.AutoAddGenreWhitelist) > 0 && !hasAnyGenre(movie.Genres, a.cfg.AutoAddGenreWhitelist) {
				return "no whitelisted genre"
			}
		default:
			// Any other mode behaves as a blacklist
			if hasAnyGenre(movie.Genres, a.cfg.AutoAddGenreBlacklist) {
				return "blacklisted genre"
			}
		}
	}

	// A movie with no certification passes the whitelist
	if a.cfg.AutoAddRatingFilterEnabled && len(a.cfg.AutoAddRatingWhitelist) > 0 && movie.Certification != "" {
		if !containsFold(a.cfg.AutoAddRatingWhitelist, movie.Certification) {
			return "certification not whitelisted"
		}
	}

	return ""
}

func hasAnyGenre(movieGenres, filterGenres []string) bool {
	for _, filter := range filterGenres {
		if containsFold(movieGenres, filter) {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// AddCandidates adds each candidate to Radarr with the default quality
// profile and the genre-routed root folder. Individual failures are logged
// and do not abort the run. Returns the titles that were added.
func (a *AutoAdder) AddCandidates(ctx context.Context, candidates []trakt.BoxOfficeMovie) []string {
	var added []string
	for _, movie := range candidates {
		rootFolder := a.selector.DetermineRootFolder(movie.Genres, movie.Title)

		_, err := a.adder.AddMovie(ctx, movie.TMDBID, radarr.AddMovieOptions{
			RootFolderPath: rootFolder,
		})
		if err != nil {
			a.logger.WithError(err).WithField("title", movie.Title).Warn("Failed to auto-add movie")
			continue
		}

		a.logger.WithFields(logrus.Fields{
			"title":       movie.Title,
			"rank":        movie.Rank,
			"root_folder": rootFolder,
		}).Info("Auto-added movie to Radarr")
		added = append(added, movie.Title)
	}
	return added
}
