package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/controllers"
	"github.com/amaumene/goboxarr/internal/models"
	"github.com/amaumene/goboxarr/internal/services/radarr"
)

// MoviesHandler handles movie library requests
type MoviesHandler struct {
	cfg      *config.Config
	client   *radarr.Client
	selector *controllers.RootFolderSelector
	updates  *controllers.UpdateController
	logger   *logrus.Logger
}

// NewMoviesHandler creates a new movies handler
func NewMoviesHandler(cfg *config.Config, client *radarr.Client, selector *controllers.RootFolderSelector, updates *controllers.UpdateController, logger *logrus.Logger) *MoviesHandler {
	return &MoviesHandler{
		cfg:      cfg,
		client:   client,
		selector: selector,
		updates:  updates,
		logger:   logger,
	}
}

// statusForRadarrError maps library client errors to HTTP statuses
func statusForRadarrError(err error) int {
	switch {
	case errors.Is(err, radarr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, radarr.ErrAuthentication), errors.Is(err, radarr.ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Movie routes /api/movies/{id} and /api/movies/{id}/upgrade
func (h *MoviesHandler) Movie(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/movies/"), "/")
	parts := strings.Split(rest, "/")

	movieID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.deleteMovie(w, r, movieID)
	case len(parts) == 1:
		h.getMovie(w, r, movieID)
	case len(parts) == 2 && parts[1] == "upgrade":
		h.upgradeMovie(w, r, movieID)
	default:
		writeError(w, http.StatusNotFound, "unknown movie route")
	}
}

func (h *MoviesHandler) getMovie(w http.ResponseWriter, r *http.Request, movieID int64) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	movie, err := h.client.GetMovie(r.Context(), movieID)
	if err != nil {
		writeError(w, statusForRadarrError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *MoviesHandler) deleteMovie(w http.ResponseWriter, r *http.Request, movieID int64) {
	deleteFiles := r.URL.Query().Get("delete_files") == "true"
	if err := h.client.DeleteMovie(r.Context(), movieID, deleteFiles); err != nil {
		writeError(w, statusForRadarrError(err), err.Error())
		return
	}
	writeSuccess(w, "movie deleted", nil)
}

// upgradeMovie switches a movie to the 4K quality profile and starts a search
func (h *MoviesHandler) upgradeMovie(w http.ResponseWriter, r *http.Request, movieID int64) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if !h.cfg.QualityUpgrade {
		writeError(w, http.StatusForbidden, "quality upgrades are disabled")
		return
	}

	profileName, err := h.upgradeProfileName(r)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.client.UpdateMovieQualityProfile(r.Context(), movieID, profileName); err != nil {
		writeError(w, statusForRadarrError(err), err.Error())
		return
	}

	// Search failure does not undo the profile change
	if err := h.client.TriggerMovieSearch(r.Context(), movieID); err != nil {
		h.logger.WithError(err).WithField("movie_id", movieID).Warn("Search after upgrade failed")
	}

	writeSuccess(w, "upgraded to "+profileName, nil)
}

// upgradeProfileName resolves the 4K profile by name heuristic, then by the
// configured upgrade profile name.
func (h *MoviesHandler) upgradeProfileName(r *http.Request) (string, error) {
	profiles, err := h.client.GetQualityProfiles(r.Context())
	if err != nil {
		return "", err
	}

	for _, p := range profiles {
		name := strings.ToLower(p.Name)
		if strings.Contains(name, "ultra") || strings.Contains(name, "uhd") || strings.Contains(name, "2160") {
			return p.Name, nil
		}
	}
	if h.cfg.RadarrQualityProfileUpgrade != "" {
		return h.cfg.RadarrQualityProfileUpgrade, nil
	}
	return "", errors.New("no upgrade quality profile available")
}

// MovieStatusEntry is one movie in a batch status response
type MovieStatusEntry struct {
	TMDBID    int    `json:"tmdb_id"`
	InLibrary bool   `json:"in_library"`
	RadarrID  int64  `json:"radarr_id,omitempty"`
	Title     string `json:"title,omitempty"`
	HasFile   bool   `json:"has_file"`
	models.DisplayStatus
}

// Status reports library state for a batch of TMDB IDs
func (h *MoviesHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		TMDBIDs []int `json:"tmdb_ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.TMDBIDs) == 0 {
		writeError(w, http.StatusBadRequest, "tmdb_ids is required")
		return
	}

	entries := make([]MovieStatusEntry, 0, len(req.TMDBIDs))
	for _, tmdbID := range req.TMDBIDs {
		entry := MovieStatusEntry{TMDBID: tmdbID, DisplayStatus: models.DisplayNotInRadarr}

		movie, err := h.client.GetMovieByTMDBID(r.Context(), tmdbID)
		if err != nil {
			writeError(w, statusForRadarrError(err), err.Error())
			return
		}
		if movie != nil {
			entry.InLibrary = true
			entry.RadarrID = movie.ID
			entry.Title = movie.Title
			entry.HasFile = movie.HasFile
			entry.DisplayStatus = models.DeriveDisplayStatus(movie.HasFile, movie.Status, movie.IsAvailable)
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, entries)
}

// Add adds a movie to Radarr by TMDB ID and refreshes the weekly pages that
// list it
func (h *MoviesHandler) Add(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		TMDBID         int    `json:"tmdb_id"`
		QualityProfile string `json:"quality_profile,omitempty"`
		RootFolder     string `json:"root_folder,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TMDBID == 0 {
		writeError(w, http.StatusBadRequest, "tmdb_id is required")
		return
	}

	added, err := h.client.AddMovie(r.Context(), req.TMDBID, radarr.AddMovieOptions{
		QualityProfileName: req.QualityProfile,
		RootFolderPath:     req.RootFolder,
	})
	if err != nil {
		writeError(w, statusForRadarrError(err), err.Error())
		return
	}

	refreshed, err := h.updates.RegenerateWeeksWithMovie(r.Context(), added.Title)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to refresh weekly pages after add")
	}

	writeSuccess(w, "added "+added.Title, map[string]interface{}{
		"movie":           added,
		"refreshed_weeks": refreshed,
	})
}

// RootFoldersAvailable lists the root folders configured in Radarr
func (h *MoviesHandler) RootFoldersAvailable(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	folders, err := h.selector.AvailableRootFolders(r.Context())
	if err != nil {
		writeError(w, statusForRadarrError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

// RootFoldersSuggest returns the folder the routing rules pick for a genre set
func (h *MoviesHandler) RootFoldersSuggest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Genres []string `json:"genres"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"root_folder": h.selector.SuggestForGenres(req.Genres),
	})
}
