package controllers

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/services/radarr"
	"github.com/amaumene/goboxarr/internal/services/trakt"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		RadarrRootFolder:            "/movies",
		RadarrQualityProfileDefault: "HD-1080p",
		AutoAdd:                     true,
		AutoAddLimit:                10,
		QualityUpgrade:              true,
		HistoryRetentionDays:        30,
		DataDir:                     t.TempDir(),
	}
}

// fakeLibrary stands in for the Radarr client in pipeline tests
type fakeLibrary struct {
	movies    []radarr.Movie
	profiles  []radarr.QualityProfile
	addErr    map[int]error
	addedIDs  []int
	bustCalls int
	lookups   int
	nextID    int64
}

func (f *fakeLibrary) GetMovieByTMDBID(ctx context.Context, tmdbID int) (*radarr.Movie, error) {
	for i := range f.movies {
		if f.movies[i].TMDBID == tmdbID {
			return &f.movies[i], nil
		}
	}
	return nil, nil
}

func (f *fakeLibrary) AddMovie(ctx context.Context, tmdbID int, opts radarr.AddMovieOptions) (*radarr.Movie, error) {
	if err, ok := f.addErr[tmdbID]; ok {
		return nil, err
	}
	f.nextID++
	movie := radarr.Movie{
		ID:             f.nextID,
		Title:          fmt.Sprintf("Added %d", tmdbID),
		TMDBID:         tmdbID,
		RootFolderPath: opts.RootFolderPath,
	}
	f.movies = append(f.movies, movie)
	f.addedIDs = append(f.addedIDs, tmdbID)
	return &movie, nil
}

func (f *fakeLibrary) GetQualityProfiles(ctx context.Context) ([]radarr.QualityProfile, error) {
	return f.profiles, nil
}

func (f *fakeLibrary) LookupMovieByTMDBID(ctx context.Context, tmdbID int) (*radarr.Movie, error) {
	f.lookups++
	return nil, nil
}

func (f *fakeLibrary) BustCache() {
	f.bustCalls++
}

// fakeFetcher returns a fixed box office list
type fakeFetcher struct {
	movies []trakt.BoxOfficeMovie
	err    error
}

func (f *fakeFetcher) FetchBoxOffice(ctx context.Context) ([]trakt.BoxOfficeMovie, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.movies, nil
}

func boxOfficeMovie(rank, tmdbID int, title string, genres ...string) trakt.BoxOfficeMovie {
	return trakt.BoxOfficeMovie{
		Rank:   rank,
		Title:  title,
		TMDBID: tmdbID,
		Genres: genres,
	}
}
