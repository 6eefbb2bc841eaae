package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/models"
	"github.com/amaumene/goboxarr/internal/services/radarr"
	"github.com/amaumene/goboxarr/internal/utils"
)

const overviewLimit = 150

// SnapshotLibrary is the part of the library client the generator needs
type SnapshotLibrary interface {
	GetQualityProfiles(ctx context.Context) ([]radarr.QualityProfile, error)
	LookupMovieByTMDBID(ctx context.Context, tmdbID int) (*radarr.Movie, error)
}

// SnapshotMovie is one rendered movie record on a weekly page
type SnapshotMovie struct {
	Rank          int     `json:"rank"`
	Title         string  `json:"title"`
	Year          int     `json:"year,omitempty"`
	TMDBID        int     `json:"tmdb_id"`
	Revenue       int64   `json:"revenue,omitempty"`
	Poster        string  `json:"poster,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	Genres        string  `json:"genres,omitempty"`
	Runtime       int     `json:"runtime,omitempty"`
	Certification string  `json:"certification,omitempty"`
	Rating        float64 `json:"rating,omitempty"`

	InLibrary        bool   `json:"in_library"`
	RadarrID         int64  `json:"radarr_id,omitempty"`
	RadarrTitle      string `json:"radarr_title,omitempty"`
	HasFile          bool   `json:"has_file"`
	QualityProfileID int64  `json:"quality_profile_id,omitempty"`
	QualityProfile   string `json:"quality_profile,omitempty"`
	CanUpgrade       bool   `json:"can_upgrade"`

	models.DisplayStatus
}

// Snapshot is the persisted weekly page
type Snapshot struct {
	GeneratedAt     string            `json:"generated_at"`
	Year            int               `json:"year"`
	Week            int               `json:"week"`
	Friday          string            `json:"friday"`
	Sunday          string            `json:"sunday"`
	TotalMovies     int               `json:"total_movies"`
	MatchedMovies   int               `json:"matched_movies"`
	QualityProfiles map[string]string `json:"quality_profiles,omitempty"`
	UltraHDID       int64             `json:"ultra_hd_id,omitempty"`
	Movies          []SnapshotMovie   `json:"movies"`
}

// SnapshotGenerator renders match results into weekly page files
type SnapshotGenerator struct {
	cfg     *config.Config
	library SnapshotLibrary
	logger  *logrus.Logger
	now     func() time.Time
}

// NewSnapshotGenerator creates a new snapshot generator
func NewSnapshotGenerator(cfg *config.Config, library SnapshotLibrary, logger *logrus.Logger) *SnapshotGenerator {
	return &SnapshotGenerator{cfg: cfg, library: library, logger: logger, now: time.Now}
}

// Path returns the file path of the weekly page for the given week
func (g *SnapshotGenerator) Path(year, week int) string {
	return filepath.Join(g.cfg.WeeklyPagesDir(), utils.WeekID(year, week)+".json")
}

// Generate renders one weekly page and writes it, overwriting any existing
// file for that week. Returns the written path.
func (g *SnapshotGenerator) Generate(ctx context.Context, results []MatchResult, year, week int) (string, error) {
	friday, sunday := utils.WeekendRange(year, week)

	profiles, profileNames, err := g.profileNames(ctx)
	if err != nil {
		return "", err
	}
	ultraHDID := g.resolveUpgradeProfile(profiles)

	snapshot := Snapshot{
		GeneratedAt:     g.now().UTC().Format(time.RFC3339),
		Year:            year,
		Week:            week,
		Friday:          friday.Format("2006-01-02"),
		Sunday:          sunday.Format("2006-01-02"),
		TotalMovies:     len(results),
		QualityProfiles: profileNames,
		UltraHDID:       ultraHDID,
	}

	for _, result := range results {
		record := g.renderMovie(ctx, result, profileNames, ultraHDID)
		if result.IsMatched() {
			snapshot.MatchedMovies++
		}
		snapshot.Movies = append(snapshot.Movies, record)
	}

	path := g.Path(year, week)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create weekly pages directory: %w", err)
	}

	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"path":    path,
		"total":   snapshot.TotalMovies,
		"matched": snapshot.MatchedMovies,
	}).Info("Generated weekly page")
	return path, nil
}

// Load reads a stored weekly page
func (g *SnapshotGenerator) Load(year, week int) (*Snapshot, error) {
	data, err := os.ReadFile(g.Path(year, week))
	if err != nil {
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", g.Path(year, week), err)
	}
	return &snapshot, nil
}

// ListWeeks returns the year/week pairs of all stored weekly pages
func (g *SnapshotGenerator) ListWeeks() ([][2]int, error) {
	entries, err := os.ReadDir(g.cfg.WeeklyPagesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var weeks [][2]int
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		base := strings.TrimSuffix(name, ".json")
		parts := strings.SplitN(base, "W", 2)
		if len(parts) != 2 {
			continue
		}
		year, err1 := strconv.Atoi(parts[0])
		week, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			continue
		}
		weeks = append(weeks, [2]int{year, week})
	}
	return weeks, nil
}

func (g *SnapshotGenerator) profileNames(ctx context.Context) ([]radarr.QualityProfile, map[string]string, error) {
	profiles, err := g.library.GetQualityProfiles(ctx)
	if err != nil {
		return nil, nil, err
	}

	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[strconv.FormatInt(p.ID, 10)] = p.Name
	}
	return profiles, names, nil
}

// resolveUpgradeProfile finds the 4K profile by name heuristic, falling back
// to the configured upgrade profile name. Zero means no upgrade target.
func (g *SnapshotGenerator) resolveUpgradeProfile(profiles []radarr.QualityProfile) int64 {
	for _, p := range profiles {
		name := strings.ToLower(p.Name)
		if strings.Contains(name, "ultra") || strings.Contains(name, "uhd") || strings.Contains(name, "2160") {
			return p.ID
		}
	}
	if g.cfg.RadarrQualityProfileUpgrade != "" {
		for _, p := range profiles {
			if strings.EqualFold(p.Name, g.cfg.RadarrQualityProfileUpgrade) {
				return p.ID
			}
		}
	}
	return 0
}

func (g *SnapshotGenerator) renderMovie(ctx context.Context, result MatchResult, profileNames map[string]string, ultraHDID int64) SnapshotMovie {
	movie := result.BoxOffice
	record := SnapshotMovie{
		Rank:          movie.Rank,
		Title:         movie.Title,
		Year:          movie.Year,
		TMDBID:        movie.TMDBID,
		Revenue:       movie.Revenue,
		Poster:        movie.Poster,
		Overview:      truncateOverview(movie.Overview),
		Genres:        joinGenres(movie.Genres),
		Runtime:       movie.Runtime,
		Certification: movie.Certification,
		Rating:        movie.Rating,
	}

	if result.IsMatched() {
		library := result.Library
		record.InLibrary = true
		record.RadarrID = library.ID
		record.RadarrTitle = library.Title
		record.HasFile = library.HasFile
		record.QualityProfileID = library.QualityProfileID
		record.QualityProfile = profileNames[strconv.FormatInt(library.QualityProfileID, 10)]
		record.CanUpgrade = g.cfg.QualityUpgrade && ultraHDID != 0 && library.QualityProfileID != ultraHDID
		record.DisplayStatus = models.DeriveDisplayStatus(library.HasFile, library.Status, library.IsAvailable)
		if poster := library.PosterURL(); poster != "" {
			record.Poster = poster
		}
		return record
	}

	record.DisplayStatus = models.DisplayNotInRadarr
	if record.Poster == "" {
		if lookup, err := g.library.LookupMovieByTMDBID(ctx, movie.TMDBID); err != nil {
			g.logger.WithError(err).WithField("title", movie.Title).Debug("Poster lookup failed")
		} else if lookup != nil {
			record.Poster = lookup.PosterURL()
		}
	}
	return record
}

func truncateOverview(overview string) string {
	runes := []rune(overview)
	if len(runes) <= overviewLimit {
		return overview
	}
	return string(runes[:overviewLimit]) + "..."
}

func joinGenres(genres []string) string {
	if len(genres) > 2 {
		genres = genres[:2]
	}
	return strings.Join(genres, ", ")
}
