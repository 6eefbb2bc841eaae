package controllers

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/services/radarr"
)

// RootFolderSelector routes movies to a root folder based on their genres
type RootFolderSelector struct {
	cfg    *config.Config
	client *radarr.Client
	logger *logrus.Logger
}

// NewRootFolderSelector creates a new root folder selector
func NewRootFolderSelector(cfg *config.Config, client *radarr.Client, logger *logrus.Logger) *RootFolderSelector {
	return &RootFolderSelector{cfg: cfg, client: client, logger: logger}
}

// DetermineRootFolder picks the destination root folder for a movie. When
// genre mappings are disabled the default path wins; otherwise the first
// rule in ascending priority whose genre set intersects the movie's genres
// decides, falling back to the default path.
func (s *RootFolderSelector) DetermineRootFolder(genres []string, title string) string {
	rfc := s.cfg.RadarrRootFolderConfig
	if !rfc.Enabled || len(rfc.Mappings) == 0 {
		return s.cfg.RadarrRootFolder
	}

	folder := selectByGenres(rfc.Mappings, genres)
	if folder == "" {
		folder = s.cfg.RadarrRootFolder
	}

	s.logger.WithFields(logrus.Fields{
		"title":       title,
		"root_folder": folder,
	}).Debug("Determined root folder")
	return folder
}

// selectByGenres returns the folder of the lowest-priority rule whose genres
// intersect the movie's genres, or empty when no rule matches.
func selectByGenres(mappings []config.RootFolderMapping, genres []string) string {
	movieGenres := make(map[string]bool, len(genres))
	for _, g := range genres {
		movieGenres[strings.ToLower(g)] = true
	}

	best := ""
	bestPriority := -1
	for _, m := range mappings {
		if !genresIntersect(m.Genres, movieGenres) {
			continue
		}
		if bestPriority == -1 || m.Priority < bestPriority {
			best = m.RootFolder
			bestPriority = m.Priority
		}
	}
	return best
}

func genresIntersect(ruleGenres []string, movieGenres map[string]bool) bool {
	for _, g := range ruleGenres {
		if movieGenres[strings.ToLower(g)] {
			return true
		}
	}
	return false
}

// AvailableRootFolders lists the root folders configured in Radarr
func (s *RootFolderSelector) AvailableRootFolders(ctx context.Context) ([]radarr.RootFolder, error) {
	return s.client.GetRootFolders(ctx)
}

// SuggestForGenres returns the folder the current rules would pick for the
// given genres, without touching Radarr.
func (s *RootFolderSelector) SuggestForGenres(genres []string) string {
	return s.DetermineRootFolder(genres, "")
}
