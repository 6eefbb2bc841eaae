package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
)

const (
	cacheKeyMovies          = "movies"
	cacheKeyQualityProfiles = "quality_profiles"
	cacheKeyRootFolders     = "root_folders"
)

// validAvailabilities is the set of minimum availability values Radarr
// accepts. Anything else falls back to "announced".
var validAvailabilities = map[string]bool{
	"announced": true,
	"inCinemas": true,
	"released":  true,
}

// Client handles communication with the Radarr v3 API. Library, quality
// profile and root folder responses are cached for the configured TTL so a
// pipeline run does not hammer Radarr with identical requests.
type Client struct {
	baseURL    string
	apiKey     string
	cfg        *config.Config
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new Radarr client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.RadarrURL == "" {
		return nil, fmt.Errorf("radarr URL is required")
	}
	if cfg.RadarrAPIKey == "" {
		return nil, fmt.Errorf("radarr API key is required")
	}

	ttl := time.Duration(cfg.RadarrCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.RadarrURL, "/"),
		apiKey:     cfg.RadarrAPIKey,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      gocache.New(ttl, 2*ttl),
		logger:     logger,
	}, nil
}

// BustCache drops all cached responses. Called after the library changes so
// the next read sees fresh data.
func (c *Client) BustCache() {
	c.cache.Flush()
	c.logger.Debug("Radarr response cache flushed")
}

// do performs a request against the Radarr v3 API and returns the response
// body. Transport failures map to ErrConnection, HTTP failures go through
// classifyStatus.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := c.baseURL + "/api/v3" + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

// TestConnection verifies the URL and API key against the system status
// endpoint.
func (c *Client) TestConnection(ctx context.Context) (*SystemStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/system/status", nil)
	if err != nil {
		return nil, err
	}

	var status SystemStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to decode system status: %w", err)
	}

	c.logger.WithField("version", status.Version).Info("Connected to Radarr")
	return &status, nil
}

// GetAllMovies returns the full Radarr library, served from cache within the
// TTL window.
func (c *Client) GetAllMovies(ctx context.Context) ([]Movie, error) {
	if cached, found := c.cache.Get(cacheKeyMovies); found {
		return cached.([]Movie), nil
	}

	body, err := c.do(ctx, http.MethodGet, "/movie", nil)
	if err != nil {
		return nil, err
	}

	var movies []Movie
	if err := json.Unmarshal(body, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}

	c.cache.SetDefault(cacheKeyMovies, movies)
	c.logger.WithField("count", len(movies)).Debug("Fetched Radarr library")
	return movies, nil
}

// GetMovie fetches a single library movie by its Radarr ID
func (c *Client) GetMovie(ctx context.Context, movieID int64) (*Movie, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/movie/%d", movieID), nil)
	if err != nil {
		return nil, err
	}

	var movie Movie
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("failed to decode movie: %w", err)
	}
	return &movie, nil
}

// GetMovieByTMDBID returns the library movie with the given TMDB ID, or nil
// when the movie is not in the library.
func (c *Client) GetMovieByTMDBID(ctx context.Context, tmdbID int) (*Movie, error) {
	movies, err := c.GetAllMovies(ctx)
	if err != nil {
		return nil, err
	}

	for i := range movies {
		if movies[i].TMDBID == tmdbID {
			return &movies[i], nil
		}
	}
	return nil, nil
}

// SearchMovie queries Radarr's metadata lookup with a free-form term
func (c *Client) SearchMovie(ctx context.Context, term string) ([]Movie, error) {
	body, err := c.do(ctx, http.MethodGet, "/movie/lookup?term="+url.QueryEscape(term), nil)
	if err != nil {
		return nil, err
	}

	var movies []Movie
	if err := json.Unmarshal(body, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode lookup results: %w", err)
	}
	return movies, nil
}

// LookupMovieByTMDBID queries Radarr's metadata lookup for a movie that may
// not be in the library yet. Returns nil when the lookup finds nothing.
func (c *Client) LookupMovieByTMDBID(ctx context.Context, tmdbID int) (*Movie, error) {
	movies, err := c.SearchMovie(ctx, fmt.Sprintf("tmdb:%d", tmdbID))
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 || movies[0].TMDBID == 0 {
		return nil, nil
	}
	return &movies[0], nil
}

// GetQualityProfiles returns all quality profiles, cached within the TTL
// window.
func (c *Client) GetQualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	if cached, found := c.cache.Get(cacheKeyQualityProfiles); found {
		return cached.([]QualityProfile), nil
	}

	body, err := c.do(ctx, http.MethodGet, "/qualityprofile", nil)
	if err != nil {
		return nil, err
	}

	var profiles []QualityProfile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode quality profiles: %w", err)
	}

	c.cache.SetDefault(cacheKeyQualityProfiles, profiles)
	return profiles, nil
}

// FindQualityProfile resolves a profile name to its record, matching
// case-insensitively.
func (c *Client) FindQualityProfile(ctx context.Context, name string) (*QualityProfile, error) {
	profiles, err := c.GetQualityProfiles(ctx)
	if err != nil {
		return nil, err
	}

	for i := range profiles {
		if strings.EqualFold(profiles[i].Name, name) {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("quality profile %q not found in radarr", name)
}

// GetRootFolders returns all configured root folders, cached within the TTL
// window.
func (c *Client) GetRootFolders(ctx context.Context) ([]RootFolder, error) {
	if cached, found := c.cache.Get(cacheKeyRootFolders); found {
		return cached.([]RootFolder), nil
	}

	body, err := c.do(ctx, http.MethodGet, "/rootfolder", nil)
	if err != nil {
		return nil, err
	}

	var folders []RootFolder
	if err := json.Unmarshal(body, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode root folders: %w", err)
	}

	c.cache.SetDefault(cacheKeyRootFolders, folders)
	return folders, nil
}

// GetRootFolderPaths returns just the paths of the configured root folders
func (c *Client) GetRootFolderPaths(ctx context.Context) ([]string, error) {
	folders, err := c.GetRootFolders(ctx)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(folders))
	for _, folder := range folders {
		paths = append(paths, folder.Path)
	}
	return paths, nil
}

// DeleteMovie removes a movie from the library, optionally deleting its files
func (c *Client) DeleteMovie(ctx context.Context, movieID int64, deleteFiles bool) error {
	path := fmt.Sprintf("/movie/%d?deleteFiles=%t", movieID, deleteFiles)
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return err
	}

	c.cache.Delete(cacheKeyMovies)
	c.logger.WithField("movie_id", movieID).Info("Deleted movie from Radarr")
	return nil
}

// GetTags returns all Radarr tags
func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	body, err := c.do(ctx, http.MethodGet, "/tag", nil)
	if err != nil {
		return nil, err
	}

	var tags []Tag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

// EnsureTag resolves a tag label to its ID, creating the tag when it does
// not exist. Labels match case-insensitively.
func (c *Client) EnsureTag(ctx context.Context, label string) (int64, error) {
	tags, err := c.GetTags(ctx)
	if err != nil {
		return 0, err
	}

	for _, tag := range tags {
		if strings.EqualFold(tag.Label, label) {
			return tag.ID, nil
		}
	}

	body, err := c.do(ctx, http.MethodPost, "/tag", map[string]string{"label": label})
	if err != nil {
		return 0, err
	}

	var created Tag
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("failed to decode created tag: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"label": label,
		"id":    created.ID,
	}).Info("Created Radarr tag")
	return created.ID, nil
}

// AddMovie adds a movie to Radarr by TMDB ID. Metadata comes from the lookup
// endpoint, option zero values fall back to the configured defaults, and the
// auto-tag label is applied when enabled.
func (c *Client) AddMovie(ctx context.Context, tmdbID int, opts AddMovieOptions) (*Movie, error) {
	lookup, err := c.LookupMovieByTMDBID(ctx, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("lookup failed for tmdb %d: %w", tmdbID, err)
	}
	if lookup == nil {
		return nil, fmt.Errorf("tmdb %d: %w", tmdbID, ErrNotFound)
	}

	profileName := opts.QualityProfileName
	if profileName == "" {
		profileName = c.cfg.RadarrQualityProfileDefault
	}
	profile, err := c.FindQualityProfile(ctx, profileName)
	if err != nil {
		return nil, err
	}

	rootFolder := opts.RootFolderPath
	if rootFolder == "" {
		rootFolder = c.cfg.RadarrRootFolder
	}

	availability := opts.MinimumAvailability
	if availability == "" && c.cfg.RadarrMinimumAvailabilityEnabled {
		availability = c.cfg.RadarrMinimumAvailability
	}
	if availability != "" && !validAvailabilities[availability] {
		c.logger.WithField("minimum_availability", availability).Warn("Unsupported minimum availability, defaulting to announced")
		availability = "announced"
	}

	search := c.cfg.RadarrSearchForMovie
	if opts.SearchForMovie != nil {
		search = *opts.SearchForMovie
	}

	// Radarr applies its own defaults to a null tag list, so send [] explicitly
	tags := []int64{}
	if c.cfg.AutoTagEnabled && c.cfg.AutoTagLabel != "" {
		tagID, err := c.EnsureTag(ctx, c.cfg.AutoTagLabel)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to resolve auto-tag, adding without tag")
		} else {
			tags = append(tags, tagID)
		}
	}

	payload := map[string]interface{}{
		"tmdbId":           lookup.TMDBID,
		"title":            lookup.Title,
		"year":             lookup.Year,
		"qualityProfileId": profile.ID,
		"rootFolderPath":   rootFolder,
		"monitored":        true,
		"tags":             tags,
		"images":           lookup.Images,
		"addOptions": map[string]interface{}{
			"searchForMovie": search,
		},
	}
	if availability != "" {
		payload["minimumAvailability"] = availability
	}

	body, err := c.do(ctx, http.MethodPost, "/movie", payload)
	if err != nil {
		return nil, err
	}

	var added Movie
	if err := json.Unmarshal(body, &added); err != nil {
		return nil, fmt.Errorf("failed to decode added movie: %w", err)
	}

	c.cache.Delete(cacheKeyMovies)
	c.logger.WithFields(logrus.Fields{
		"title":   added.Title,
		"tmdb_id": added.TMDBID,
		"id":      added.ID,
	}).Info("Added movie to Radarr")
	return &added, nil
}

// TriggerMovieSearch starts a search for an existing library movie
func (c *Client) TriggerMovieSearch(ctx context.Context, movieID int64) error {
	// Confirm the movie exists so a bad ID maps to ErrNotFound instead of
	// a silent no-op command.
	if _, err := c.GetMovie(ctx, movieID); err != nil {
		return err
	}

	payload := map[string]interface{}{
		"name":     "MoviesSearch",
		"movieIds": []int64{movieID},
	}
	body, err := c.do(ctx, http.MethodPost, "/command", payload)
	if err != nil {
		return err
	}

	var command struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &command); err != nil {
		return fmt.Errorf("failed to decode command response: %w", err)
	}
	switch command.Status {
	case "queued", "started", "completed":
	default:
		return fmt.Errorf("search command returned status %q", command.Status)
	}

	c.logger.WithField("movie_id", movieID).Info("Triggered movie search")
	return nil
}

// UpdateMovieQualityProfile switches a library movie to the named quality
// profile. The movie record round-trips as raw JSON so fields this client
// does not model survive the PUT.
func (c *Client) UpdateMovieQualityProfile(ctx context.Context, movieID int64, profileName string) error {
	profile, err := c.FindQualityProfile(ctx, profileName)
	if err != nil {
		return err
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/movie/%d", movieID), nil)
	if err != nil {
		return err
	}

	var record map[string]interface{}
	if err := json.Unmarshal(body, &record); err != nil {
		return fmt.Errorf("failed to decode movie record: %w", err)
	}

	record["qualityProfileId"] = profile.ID

	if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/movie/%d", movieID), record); err != nil {
		return err
	}

	c.cache.Delete(cacheKeyMovies)
	c.logger.WithFields(logrus.Fields{
		"movie_id": movieID,
		"profile":  profileName,
	}).Info("Updated movie quality profile")
	return nil
}
