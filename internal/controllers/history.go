package controllers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/utils"
)

// MatchedSummary is one matched movie in a history record
type MatchedSummary struct {
	Rank        int    `json:"rank"`
	Title       string `json:"title"`
	RadarrTitle string `json:"radarr_title"`
	RadarrID    int64  `json:"radarr_id"`
	TMDBID      int    `json:"tmdb_id"`
	Status      string `json:"status"`
	HasFile     bool   `json:"has_file"`
}

// UnmatchedSummary is one unmatched movie in a history record
type UnmatchedSummary struct {
	Rank   int    `json:"rank"`
	Title  string `json:"title"`
	TMDBID int    `json:"tmdb_id"`
}

// HistoryRecord captures the outcome of one pipeline run
type HistoryRecord struct {
	Timestamp       string             `json:"timestamp"`
	Year            int                `json:"year"`
	Week            int                `json:"week"`
	TotalMovies     int                `json:"total_movies"`
	MatchedMovies   int                `json:"matched_movies"`
	UnmatchedMovies int                `json:"unmatched_movies"`
	StatusBreakdown map[string]int     `json:"status_breakdown,omitempty"`
	Matched         []MatchedSummary   `json:"matched,omitempty"`
	Unmatched       []UnmatchedSummary `json:"unmatched,omitempty"`
	AddedTitles     []string           `json:"added_titles,omitempty"`
	SnapshotPath    string             `json:"snapshot_path,omitempty"`
}

// HistoryLog persists per-run history records as JSON files
type HistoryLog struct {
	cfg    *config.Config
	logger *logrus.Logger
	now    func() time.Time
}

// NewHistoryLog creates a new history log
func NewHistoryLog(cfg *config.Config, logger *logrus.Logger) *HistoryLog {
	return &HistoryLog{cfg: cfg, logger: logger, now: time.Now}
}

// Save writes a timestamped record for the run and overwrites the week's
// latest pointer file.
func (h *HistoryLog) Save(record *HistoryRecord) error {
	dir := h.cfg.HistoryDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	now := h.now().UTC()
	if record.Timestamp == "" {
		record.Timestamp = now.Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	weekID := utils.WeekID(record.Year, record.Week)
	timestamped := filepath.Join(dir, fmt.Sprintf("%s_%s.json", weekID, now.Format("20060102_150405")))
	if err := os.WriteFile(timestamped, data, 0644); err != nil {
		return fmt.Errorf("failed to write history record: %w", err)
	}

	latest := filepath.Join(dir, weekID+"_latest.json")
	if err := os.WriteFile(latest, data, 0644); err != nil {
		return fmt.Errorf("failed to write latest history record: %w", err)
	}

	h.logger.WithField("path", timestamped).Info("Saved run history")
	return nil
}

// Cleanup deletes timestamped history files older than the retention window,
// by file modification time. Latest pointer files are never deleted.
func (h *HistoryLog) Cleanup() (int, error) {
	if h.cfg.HistoryRetentionDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(h.cfg.HistoryDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := h.now().Add(-time.Duration(h.cfg.HistoryRetentionDays) * 24 * time.Hour)
	removed := 0

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") || strings.Contains(name, "latest") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(h.cfg.HistoryDir(), name)
		if err := os.Remove(path); err != nil {
			h.logger.WithError(err).WithField("path", path).Warn("Failed to remove old history file")
			continue
		}
		removed++
	}

	if removed > 0 {
		h.logger.WithField("removed", removed).Info("Cleaned up old history files")
	}
	return removed, nil
}

// Latest returns up to limit of the most recent per-week records, newest
// first by file modification time.
func (h *HistoryLog) Latest(limit int) ([]HistoryRecord, error) {
	entries, err := os.ReadDir(h.cfg.HistoryDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type latestFile struct {
		path    string
		modTime time.Time
	}
	var files []latestFile
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), "_latest.json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, latestFile{
			path:    filepath.Join(h.cfg.HistoryDir(), entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	var records []HistoryRecord
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			continue
		}
		var record HistoryRecord
		if err := json.Unmarshal(data, &record); err != nil {
			h.logger.WithError(err).WithField("path", f.path).Warn("Skipping unreadable history record")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// LastRunTime returns the modification time of the newest timestamped
// history file, or false when no run has been recorded.
func (h *HistoryLog) LastRunTime() (time.Time, bool) {
	entries, err := os.ReadDir(h.cfg.HistoryDir())
	if err != nil {
		return time.Time{}, false
	}

	var newest time.Time
	found := false
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") || strings.Contains(name, "latest") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
			found = true
		}
	}
	return newest, found
}
