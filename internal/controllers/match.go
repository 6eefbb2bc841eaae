package controllers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/services/radarr"
	"github.com/amaumene/goboxarr/internal/services/trakt"
)

// MovieFinder is the part of the library client the matcher needs
type MovieFinder interface {
	GetMovieByTMDBID(ctx context.Context, tmdbID int) (*radarr.Movie, error)
}

// MatchResult pairs a box office movie with its library record, when one
// exists.
type MatchResult struct {
	BoxOffice trakt.BoxOfficeMovie
	Library   *radarr.Movie
}

// IsMatched reports whether the movie is in the library
func (r *MatchResult) IsMatched() bool {
	return r.Library != nil
}

// MatchBoxOffice cross-references box office movies against the library by
// TMDB ID. Results preserve the input order, one result per input movie.
// Entries without a TMDB ID never trigger a lookup.
func MatchBoxOffice(ctx context.Context, movies []trakt.BoxOfficeMovie, finder MovieFinder, logger *logrus.Logger) ([]MatchResult, error) {
	results := make([]MatchResult, 0, len(movies))
	matched := 0

	for _, movie := range movies {
		result := MatchResult{BoxOffice: movie}

		if movie.TMDBID != 0 {
			library, err := finder.GetMovieByTMDBID(ctx, movie.TMDBID)
			if err != nil {
				return nil, err
			}
			result.Library = library
		}

		if result.IsMatched() {
			matched++
		}
		results = append(results, result)
	}

	logger.WithFields(logrus.Fields{
		"total":   len(results),
		"matched": matched,
	}).Info("Matched box office movies against Radarr library")
	return results, nil
}
