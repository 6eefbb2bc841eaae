package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// localFile mirrors the layout of the local.yaml override written by the
// config routes. Pointer fields distinguish "absent" from zero values.
type localFile struct {
	Trakt struct {
		ClientID *string `yaml:"client_id,omitempty"`
	} `yaml:"trakt"`
	Radarr struct {
		URL                        *string           `yaml:"url,omitempty"`
		APIKey                     *string           `yaml:"api_key,omitempty"`
		RootFolder                 *string           `yaml:"root_folder,omitempty"`
		QualityProfileDefault      *string           `yaml:"quality_profile_default,omitempty"`
		QualityProfileUpgrade      *string           `yaml:"quality_profile_upgrade,omitempty"`
		MinimumAvailabilityEnabled *bool             `yaml:"minimum_availability_enabled,omitempty"`
		MinimumAvailability        *string           `yaml:"minimum_availability,omitempty"`
		RootFolderConfig           *RootFolderConfig `yaml:"root_folder_config,omitempty"`
	} `yaml:"radarr"`
	Boxarr struct {
		Scheduler struct {
			Enabled *bool   `yaml:"enabled,omitempty"`
			Cron    *string `yaml:"cron,omitempty"`
		} `yaml:"scheduler"`
		Features struct {
			AutoAdd        *bool   `yaml:"auto_add,omitempty"`
			QualityUpgrade *bool   `yaml:"quality_upgrade,omitempty"`
			AutoTagEnabled *bool   `yaml:"auto_tag_enabled,omitempty"`
			AutoTagText    *string `yaml:"auto_tag_text,omitempty"`
			AutoAddOptions struct {
				Limit               *int     `yaml:"limit,omitempty"`
				GenreFilterEnabled  *bool    `yaml:"genre_filter_enabled,omitempty"`
				GenreFilterMode     *string  `yaml:"genre_filter_mode,omitempty"`
				GenreWhitelist      []string `yaml:"genre_whitelist,omitempty"`
				GenreBlacklist      []string `yaml:"genre_blacklist,omitempty"`
				RatingFilterEnabled *bool    `yaml:"rating_filter_enabled,omitempty"`
				RatingWhitelist     []string `yaml:"rating_whitelist,omitempty"`
				IgnoreRereleases    *bool    `yaml:"ignore_rereleases,omitempty"`
			} `yaml:"auto_add_options"`
		} `yaml:"features"`
	} `yaml:"boxarr"`
}

// applyLocalOverride merges the local.yaml file over the env-derived values.
// A missing file is not an error.
func (c *Config) applyLocalOverride(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var local localFile
	if err := yaml.Unmarshal(data, &local); err != nil {
		return fmt.Errorf("invalid local config %s: %w", path, err)
	}

	if v := local.Trakt.ClientID; v != nil && *v != "" {
		c.TraktClientID = *v
	}
	if v := local.Radarr.URL; v != nil && *v != "" {
		c.RadarrURL = *v
	}
	if v := local.Radarr.APIKey; v != nil && *v != "" {
		c.RadarrAPIKey = *v
	}
	if v := local.Radarr.RootFolder; v != nil && *v != "" {
		c.RadarrRootFolder = *v
	}
	if v := local.Radarr.QualityProfileDefault; v != nil && *v != "" {
		c.RadarrQualityProfileDefault = *v
	}
	if v := local.Radarr.QualityProfileUpgrade; v != nil {
		c.RadarrQualityProfileUpgrade = *v
	}
	if v := local.Radarr.MinimumAvailabilityEnabled; v != nil {
		c.RadarrMinimumAvailabilityEnabled = *v
	}
	if v := local.Radarr.MinimumAvailability; v != nil && *v != "" {
		c.RadarrMinimumAvailability = *v
	}
	if v := local.Radarr.RootFolderConfig; v != nil {
		c.RadarrRootFolderConfig = *v
	}

	sched := local.Boxarr.Scheduler
	if sched.Enabled != nil {
		c.SchedulerEnabled = *sched.Enabled
	}
	if sched.Cron != nil && *sched.Cron != "" {
		c.SchedulerCron = *sched.Cron
	}

	feat := local.Boxarr.Features
	if feat.AutoAdd != nil {
		c.AutoAdd = *feat.AutoAdd
	}
	if feat.QualityUpgrade != nil {
		c.QualityUpgrade = *feat.QualityUpgrade
	}
	if feat.AutoTagEnabled != nil {
		c.AutoTagEnabled = *feat.AutoTagEnabled
	}
	if feat.AutoTagText != nil {
		c.AutoTagLabel = *feat.AutoTagText
	}

	opts := feat.AutoAddOptions
	if opts.Limit != nil {
		c.AutoAddLimit = *opts.Limit
	}
	if opts.GenreFilterEnabled != nil {
		c.AutoAddGenreFilterEnabled = *opts.GenreFilterEnabled
	}
	if opts.GenreFilterMode != nil && *opts.GenreFilterMode != "" {
		c.AutoAddGenreFilterMode = *opts.GenreFilterMode
	}
	if opts.GenreWhitelist != nil {
		c.AutoAddGenreWhitelist = opts.GenreWhitelist
	}
	if opts.GenreBlacklist != nil {
		c.AutoAddGenreBlacklist = opts.GenreBlacklist
	}
	if opts.RatingFilterEnabled != nil {
		c.AutoAddRatingFilterEnabled = *opts.RatingFilterEnabled
	}
	if opts.RatingWhitelist != nil {
		c.AutoAddRatingWhitelist = opts.RatingWhitelist
	}
	if opts.IgnoreRereleases != nil {
		c.AutoAddIgnoreRereleases = *opts.IgnoreRereleases
	}

	return nil
}

// NormalizeRootFolderMappings renumbers rule priorities to sequential values
// matching their list position.
func NormalizeRootFolderMappings(mappings []RootFolderMapping) []RootFolderMapping {
	normalized := make([]RootFolderMapping, len(mappings))
	for i, m := range mappings {
		normalized[i] = RootFolderMapping{
			Genres:     m.Genres,
			RootFolder: m.RootFolder,
			Priority:   i,
		}
	}
	return normalized
}

// MergeRootFolderConfig applies the posted root folder config onto the
// current one. An empty posted mapping list preserves the existing rules and
// applies only the posted enabled flag, so a partial update cannot wipe the
// rules. Priorities are always renumbered to list position.
func MergeRootFolderConfig(posted, current RootFolderConfig) RootFolderConfig {
	if len(posted.Mappings) == 0 && len(current.Mappings) > 0 {
		return RootFolderConfig{
			Enabled:  posted.Enabled,
			Mappings: NormalizeRootFolderMappings(current.Mappings),
		}
	}
	return RootFolderConfig{
		Enabled:  posted.Enabled,
		Mappings: NormalizeRootFolderMappings(posted.Mappings),
	}
}

// SaveLocalRequest carries the settings the config route persists.
type SaveLocalRequest struct {
	TraktClientID                    string
	RadarrURL                        string
	RadarrAPIKey                     string
	RadarrRootFolder                 string
	RadarrQualityProfileDefault      string
	RadarrQualityProfileUpgrade      string
	RadarrMinimumAvailabilityEnabled bool
	RadarrMinimumAvailability        string
	RootFolderConfig                 *RootFolderConfig

	SchedulerEnabled bool
	SchedulerCron    string

	AutoAdd                    bool
	QualityUpgrade             bool
	AutoTagEnabled             bool
	AutoTagLabel               string
	AutoAddLimit               int
	AutoAddGenreFilterEnabled  bool
	AutoAddGenreFilterMode     string
	AutoAddGenreWhitelist      []string
	AutoAddGenreBlacklist      []string
	AutoAddRatingFilterEnabled bool
	AutoAddRatingWhitelist     []string
	AutoAddIgnoreRereleases    bool
}

// SaveLocal writes the local.yaml override and applies the saved values to
// the in-memory config.
func (c *Config) SaveLocal(req SaveLocalRequest) error {
	var rootFolderConfig RootFolderConfig
	if req.RootFolderConfig != nil {
		rootFolderConfig = MergeRootFolderConfig(*req.RootFolderConfig, c.RadarrRootFolderConfig)
	} else {
		// Nothing posted at all: preserve the existing rules untouched,
		// normalizing priorities.
		rootFolderConfig = RootFolderConfig{
			Enabled:  c.RadarrRootFolderConfig.Enabled,
			Mappings: NormalizeRootFolderMappings(c.RadarrRootFolderConfig.Mappings),
		}
	}

	var local localFile
	local.Trakt.ClientID = &req.TraktClientID
	local.Radarr.URL = &req.RadarrURL
	local.Radarr.APIKey = &req.RadarrAPIKey
	local.Radarr.RootFolder = &req.RadarrRootFolder
	local.Radarr.QualityProfileDefault = &req.RadarrQualityProfileDefault
	local.Radarr.QualityProfileUpgrade = &req.RadarrQualityProfileUpgrade
	local.Radarr.MinimumAvailabilityEnabled = &req.RadarrMinimumAvailabilityEnabled
	local.Radarr.MinimumAvailability = &req.RadarrMinimumAvailability
	local.Radarr.RootFolderConfig = &rootFolderConfig
	local.Boxarr.Scheduler.Enabled = &req.SchedulerEnabled
	local.Boxarr.Scheduler.Cron = &req.SchedulerCron
	local.Boxarr.Features.AutoAdd = &req.AutoAdd
	local.Boxarr.Features.QualityUpgrade = &req.QualityUpgrade
	local.Boxarr.Features.AutoTagEnabled = &req.AutoTagEnabled
	local.Boxarr.Features.AutoTagText = &req.AutoTagLabel
	local.Boxarr.Features.AutoAddOptions.Limit = &req.AutoAddLimit
	local.Boxarr.Features.AutoAddOptions.GenreFilterEnabled = &req.AutoAddGenreFilterEnabled
	local.Boxarr.Features.AutoAddOptions.GenreFilterMode = &req.AutoAddGenreFilterMode
	local.Boxarr.Features.AutoAddOptions.GenreWhitelist = req.AutoAddGenreWhitelist
	local.Boxarr.Features.AutoAddOptions.GenreBlacklist = req.AutoAddGenreBlacklist
	local.Boxarr.Features.AutoAddOptions.RatingFilterEnabled = &req.AutoAddRatingFilterEnabled
	local.Boxarr.Features.AutoAddOptions.RatingWhitelist = req.AutoAddRatingWhitelist
	local.Boxarr.Features.AutoAddOptions.IgnoreRereleases = &req.AutoAddIgnoreRereleases

	data, err := yaml.Marshal(&local)
	if err != nil {
		return fmt.Errorf("failed to marshal local config: %w", err)
	}

	if err := os.WriteFile(c.LocalConfigFile(), data, 0644); err != nil {
		return fmt.Errorf("failed to write local config: %w", err)
	}

	return c.applyLocalOverride(c.LocalConfigFile())
}
