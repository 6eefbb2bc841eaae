package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
)

const (
	apiVersion  = "2"
	maxAttempts = 3
	topCount    = 10
)

// ErrNoMovies is returned when the box office response contains no usable entries.
var ErrNoMovies = errors.New("no movies found in box office data")

// FetchError wraps a failure to fetch box office data after all retries.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch box office data after %d attempts: %v", maxAttempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// BoxOfficeMovie represents a movie from the Trakt box office endpoint.
// A TMDBID of zero means the id is unknown; such entries are dropped at
// parse time and never reach callers.
type BoxOfficeMovie struct {
	Rank          int      `json:"rank"`
	Title         string   `json:"title"`
	Year          int      `json:"year,omitempty"`
	Revenue       int64    `json:"revenue,omitempty"`
	TMDBID        int      `json:"tmdb_id"`
	IMDBID        string   `json:"imdb_id,omitempty"`
	TraktID       int      `json:"trakt_id,omitempty"`
	TraktSlug     string   `json:"trakt_slug,omitempty"`
	Overview      string   `json:"overview,omitempty"`
	Runtime       int      `json:"runtime,omitempty"`
	Certification string   `json:"certification,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Released      string   `json:"released,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Poster        string   `json:"poster,omitempty"`
}

// boxOfficeEntry mirrors one element of the Trakt /movies/boxoffice response
type boxOfficeEntry struct {
	Revenue int64 `json:"revenue"`
	Movie   struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			Trakt int    `json:"trakt"`
			Slug  string `json:"slug"`
			IMDB  string `json:"imdb"`
			TMDB  int    `json:"tmdb"`
		} `json:"ids"`
		Overview      string   `json:"overview"`
		Runtime       int      `json:"runtime"`
		Certification string   `json:"certification"`
		Genres        []string `json:"genres"`
		Released      string   `json:"released"`
		Rating        float64  `json:"rating"`
	} `json:"movie"`
}

// Client handles communication with the Trakt API
type Client struct {
	clientID      string
	apiURL        string
	httpClient    *http.Client
	logger        *logrus.Logger
	retryInterval time.Duration
}

// NewClient creates a new Trakt box office client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TraktClientID == "" {
		return nil, fmt.Errorf("trakt client ID is required")
	}

	return &Client{
		clientID:      cfg.TraktClientID,
		apiURL:        strings.TrimRight(cfg.TraktAPIURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
		retryInterval: 1 * time.Second,
	}, nil
}

// FetchBoxOffice fetches the current weekend box office from the Trakt API.
// Requests extended metadata so genres, certification, overview, runtime and
// rating are available for filtering and rendering. Retries transport and
// HTTP failures with exponential backoff (1s, 2s) before giving up with a
// FetchError wrapping the last underlying error.
func (c *Client) FetchBoxOffice(ctx context.Context) ([]BoxOfficeMovie, error) {
	url := c.apiURL + "/movies/boxoffice?extended=full"
	c.logger.WithField("url", url).Info("Fetching box office data from Trakt API")

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0

	var movies []BoxOfficeMovie
	attempt := 0

	operation := func() error {
		attempt++
		result, err := c.fetchOnce(ctx, url)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"attempt":      attempt,
				"max_attempts": maxAttempts,
			}).Warn("Trakt API request failed")
			return err
		}
		movies = result
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.WithContext(expo, ctx), maxAttempts-1)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, &FetchError{Err: err}
	}

	return movies, nil
}

// fetchOnce performs a single request/parse cycle
func (c *Client) fetchOnce(ctx context.Context, url string) ([]BoxOfficeMovie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trakt API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var entries []boxOfficeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return c.parseEntries(entries)
}

// parseEntries converts raw response entries into BoxOfficeMovie values.
// Only the first ten raw entries are considered. Entries without a TMDB ID
// are skipped and do not consume a rank slot, so ranks stay dense over the
// kept entries.
func (c *Client) parseEntries(entries []boxOfficeEntry) ([]BoxOfficeMovie, error) {
	if len(entries) > topCount {
		entries = entries[:topCount]
	}

	var movies []BoxOfficeMovie
	rank := 1

	for _, entry := range entries {
		if entry.Movie.IDs.TMDB == 0 {
			c.logger.WithField("title", entry.Movie.Title).Warn("Skipping movie without TMDB ID")
			continue
		}

		movie := BoxOfficeMovie{
			Rank:          rank,
			Title:         entry.Movie.Title,
			Year:          entry.Movie.Year,
			Revenue:       entry.Revenue,
			TMDBID:        entry.Movie.IDs.TMDB,
			IMDBID:        entry.Movie.IDs.IMDB,
			TraktID:       entry.Movie.IDs.Trakt,
			TraktSlug:     entry.Movie.IDs.Slug,
			Overview:      entry.Movie.Overview,
			Runtime:       entry.Movie.Runtime,
			Certification: entry.Movie.Certification,
			Genres:        entry.Movie.Genres,
			Released:      entry.Movie.Released,
			Rating:        entry.Movie.Rating,
		}
		movies = append(movies, movie)
		rank++

		c.logger.WithFields(logrus.Fields{
			"rank":    movie.Rank,
			"title":   movie.Title,
			"tmdb_id": movie.TMDBID,
		}).Debug("Parsed box office movie")
	}

	if len(movies) == 0 {
		return nil, ErrNoMovies
	}

	c.logger.WithField("count", len(movies)).Info("Parsed box office movies from Trakt")
	return movies, nil
}
