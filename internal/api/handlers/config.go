package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/scheduler"
	"github.com/amaumene/goboxarr/internal/services/radarr"
)

// ConfigHandler handles configuration requests
type ConfigHandler struct {
	cfg       *config.Config
	client    *radarr.Client
	scheduler *scheduler.Scheduler
	logger    *logrus.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, client *radarr.Client, sched *scheduler.Scheduler, logger *logrus.Logger) *ConfigHandler {
	return &ConfigHandler{cfg: cfg, client: client, scheduler: sched, logger: logger}
}

// ConfigView is the redacted configuration returned to clients
type ConfigView struct {
	TraktConfigured bool `json:"trakt_configured"`

	RadarrURL                   string `json:"radarr_url"`
	RadarrAPIKeySet             bool   `json:"radarr_api_key_set"`
	RadarrRootFolder            string `json:"radarr_root_folder"`
	RadarrQualityProfileDefault string `json:"radarr_quality_profile_default"`
	RadarrQualityProfileUpgrade string `json:"radarr_quality_profile_upgrade,omitempty"`
	RadarrMinimumAvailability   string `json:"radarr_minimum_availability"`

	SchedulerEnabled  bool   `json:"scheduler_enabled"`
	SchedulerCron     string `json:"scheduler_cron"`
	SchedulerTimezone string `json:"scheduler_timezone"`

	AutoAdd                    bool     `json:"auto_add"`
	AutoAddLimit               int      `json:"auto_add_limit"`
	AutoAddGenreFilterEnabled  bool     `json:"auto_add_genre_filter_enabled"`
	AutoAddGenreFilterMode     string   `json:"auto_add_genre_filter_mode"`
	AutoAddGenreWhitelist      []string `json:"auto_add_genre_whitelist,omitempty"`
	AutoAddGenreBlacklist      []string `json:"auto_add_genre_blacklist,omitempty"`
	AutoAddRatingFilterEnabled bool     `json:"auto_add_rating_filter_enabled"`
	AutoAddRatingWhitelist     []string `json:"auto_add_rating_whitelist,omitempty"`
	AutoAddIgnoreRereleases    bool     `json:"auto_add_ignore_rereleases"`

	AutoTagEnabled bool   `json:"auto_tag_enabled"`
	AutoTagLabel   string `json:"auto_tag_label"`
	QualityUpgrade bool   `json:"quality_upgrade"`

	HistoryRetentionDays int `json:"history_retention_days"`
}

// Get returns the current configuration with secrets redacted
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, ConfigView{
		TraktConfigured:             h.cfg.TraktClientID != "",
		RadarrURL:                   h.cfg.RadarrURL,
		RadarrAPIKeySet:             h.cfg.RadarrAPIKey != "",
		RadarrRootFolder:            h.cfg.RadarrRootFolder,
		RadarrQualityProfileDefault: h.cfg.RadarrQualityProfileDefault,
		RadarrQualityProfileUpgrade: h.cfg.RadarrQualityProfileUpgrade,
		RadarrMinimumAvailability:   h.cfg.RadarrMinimumAvailability,
		SchedulerEnabled:            h.cfg.SchedulerEnabled,
		SchedulerCron:               h.cfg.SchedulerCron,
		SchedulerTimezone:           h.cfg.SchedulerTimezone,
		AutoAdd:                     h.cfg.AutoAdd,
		AutoAddLimit:                h.cfg.AutoAddLimit,
		AutoAddGenreFilterEnabled:   h.cfg.AutoAddGenreFilterEnabled,
		AutoAddGenreFilterMode:      h.cfg.AutoAddGenreFilterMode,
		AutoAddGenreWhitelist:       h.cfg.AutoAddGenreWhitelist,
		AutoAddGenreBlacklist:       h.cfg.AutoAddGenreBlacklist,
		AutoAddRatingFilterEnabled:  h.cfg.AutoAddRatingFilterEnabled,
		AutoAddRatingWhitelist:      h.cfg.AutoAddRatingWhitelist,
		AutoAddIgnoreRereleases:     h.cfg.AutoAddIgnoreRereleases,
		AutoTagEnabled:              h.cfg.AutoTagEnabled,
		AutoTagLabel:                h.cfg.AutoTagLabel,
		QualityUpgrade:              h.cfg.QualityUpgrade,
		HistoryRetentionDays:        h.cfg.HistoryRetentionDays,
	})
}

// Test probes a Radarr instance with the posted credentials
func (h *ConfigHandler) Test(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		RadarrURL    string `json:"radarr_url"`
		RadarrAPIKey string `json:"radarr_api_key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RadarrURL == "" || req.RadarrAPIKey == "" {
		writeError(w, http.StatusBadRequest, "radarr_url and radarr_api_key are required")
		return
	}

	probe, err := radarr.NewClient(&config.Config{
		RadarrURL:             req.RadarrURL,
		RadarrAPIKey:          req.RadarrAPIKey,
		RadarrCacheTTLSeconds: 1,
	}, h.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := probe.TestConnection(r.Context())
	if err != nil {
		writeError(w, statusForRadarrError(err), err.Error())
		return
	}
	writeSuccess(w, "connected to Radarr "+status.Version, status)
}

// SaveRequest is the config save payload
type SaveRequest struct {
	TraktClientID string `json:"trakt_client_id"`

	RadarrURL                        string                   `json:"radarr_url"`
	RadarrAPIKey                     string                   `json:"radarr_api_key"`
	RadarrRootFolder                 string                   `json:"radarr_root_folder"`
	RadarrQualityProfileDefault      string                   `json:"radarr_quality_profile_default"`
	RadarrQualityProfileUpgrade      string                   `json:"radarr_quality_profile_upgrade"`
	RadarrMinimumAvailabilityEnabled bool                     `json:"radarr_minimum_availability_enabled"`
	RadarrMinimumAvailability        string                   `json:"radarr_minimum_availability"`
	RootFolderConfig                 *config.RootFolderConfig `json:"root_folder_config,omitempty"`

	SchedulerEnabled bool   `json:"scheduler_enabled"`
	SchedulerCron    string `json:"scheduler_cron"`

	AutoAdd                    bool     `json:"auto_add"`
	QualityUpgrade             bool     `json:"quality_upgrade"`
	AutoTagEnabled             bool     `json:"auto_tag_enabled"`
	AutoTagLabel               string   `json:"auto_tag_label"`
	AutoAddLimit               int      `json:"auto_add_limit"`
	AutoAddGenreFilterEnabled  bool     `json:"auto_add_genre_filter_enabled"`
	AutoAddGenreFilterMode     string   `json:"auto_add_genre_filter_mode"`
	AutoAddGenreWhitelist      []string `json:"auto_add_genre_whitelist"`
	AutoAddGenreBlacklist      []string `json:"auto_add_genre_blacklist"`
	AutoAddRatingFilterEnabled bool     `json:"auto_add_rating_filter_enabled"`
	AutoAddRatingWhitelist     []string `json:"auto_add_rating_whitelist"`
	AutoAddIgnoreRereleases    bool     `json:"auto_add_ignore_rereleases"`
}

// Save persists the posted settings to the local override file and applies
// them to the running process, reloading the scheduler when the cron changed.
func (h *ConfigHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req SaveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	previousCron := h.cfg.SchedulerCron

	err := h.cfg.SaveLocal(config.SaveLocalRequest{
		TraktClientID:                    req.TraktClientID,
		RadarrURL:                        req.RadarrURL,
		RadarrAPIKey:                     req.RadarrAPIKey,
		RadarrRootFolder:                 req.RadarrRootFolder,
		RadarrQualityProfileDefault:      req.RadarrQualityProfileDefault,
		RadarrQualityProfileUpgrade:      req.RadarrQualityProfileUpgrade,
		RadarrMinimumAvailabilityEnabled: req.RadarrMinimumAvailabilityEnabled,
		RadarrMinimumAvailability:        req.RadarrMinimumAvailability,
		RootFolderConfig:                 req.RootFolderConfig,
		SchedulerEnabled:                 req.SchedulerEnabled,
		SchedulerCron:                    req.SchedulerCron,
		AutoAdd:                          req.AutoAdd,
		QualityUpgrade:                   req.QualityUpgrade,
		AutoTagEnabled:                   req.AutoTagEnabled,
		AutoTagLabel:                     req.AutoTagLabel,
		AutoAddLimit:                     req.AutoAddLimit,
		AutoAddGenreFilterEnabled:        req.AutoAddGenreFilterEnabled,
		AutoAddGenreFilterMode:           req.AutoAddGenreFilterMode,
		AutoAddGenreWhitelist:            req.AutoAddGenreWhitelist,
		AutoAddGenreBlacklist:            req.AutoAddGenreBlacklist,
		AutoAddRatingFilterEnabled:       req.AutoAddRatingFilterEnabled,
		AutoAddRatingWhitelist:           req.AutoAddRatingWhitelist,
		AutoAddIgnoreRereleases:          req.AutoAddIgnoreRereleases,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to save configuration")
		writeError(w, http.StatusInternalServerError, "failed to save configuration")
		return
	}

	if h.scheduler != nil && h.cfg.SchedulerCron != previousCron {
		if err := h.scheduler.Reload(h.cfg.SchedulerCron); err != nil {
			h.logger.WithError(err).Warn("Saved config but scheduler reload failed")
		}
	}

	writeSuccess(w, "configuration saved", nil)
}

// RootFolders returns the genre routing rules plus the folder paths Radarr
// actually has, so clients can flag rules pointing at missing folders
func (h *ConfigHandler) RootFolders(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	rfc := h.cfg.RadarrRootFolderConfig
	rfc.Mappings = config.NormalizeRootFolderMappings(rfc.Mappings)

	paths, err := h.client.GetRootFolderPaths(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Failed to list Radarr root folders")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config":          rfc,
		"available_paths": paths,
	})
}
