package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RootFolderMapping maps a set of genres to a destination root folder.
type RootFolderMapping struct {
	Genres     []string `yaml:"genres" json:"genres"`
	RootFolder string   `yaml:"root_folder" json:"root_folder"`
	Priority   int      `yaml:"priority" json:"priority"`
}

// RootFolderConfig holds the genre-to-folder routing rules.
type RootFolderConfig struct {
	Enabled  bool                `yaml:"enabled" json:"enabled"`
	Mappings []RootFolderMapping `yaml:"mappings" json:"mappings"`
}

// Config holds all application configuration
type Config struct {
	// Trakt
	TraktClientID string
	TraktAPIURL   string

	// Radarr
	RadarrURL                        string
	RadarrAPIKey                     string
	RadarrRootFolder                 string
	RadarrQualityProfileDefault      string
	RadarrQualityProfileUpgrade      string
	RadarrMinimumAvailabilityEnabled bool
	RadarrMinimumAvailability        string
	RadarrSearchForMovie             bool
	RadarrCacheTTLSeconds            int
	RadarrRootFolderConfig           RootFolderConfig

	// Scheduler
	SchedulerEnabled  bool
	SchedulerCron     string
	SchedulerTimezone string

	// Auto-add
	AutoAdd                    bool
	AutoAddLimit               int
	AutoAddGenreFilterEnabled  bool
	AutoAddGenreFilterMode     string // "whitelist" or "blacklist"
	AutoAddGenreWhitelist      []string
	AutoAddGenreBlacklist      []string
	AutoAddRatingFilterEnabled bool
	AutoAddRatingWhitelist     []string
	AutoAddIgnoreRereleases    bool

	// Auto-tagging
	AutoTagEnabled bool
	AutoTagLabel   string

	// Features
	QualityUpgrade bool

	// Data / retention
	DataDir              string
	HistoryRetentionDays int

	// Server
	ServerPort string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables, an optional .env file
// and the local.yaml override saved through the config routes.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("TRAKT_API_URL", "https://api.trakt.tv")
	viper.SetDefault("RADARR_ROOT_FOLDER", "/movies")
	viper.SetDefault("RADARR_QUALITY_PROFILE_DEFAULT", "HD-1080p")
	viper.SetDefault("RADARR_MINIMUM_AVAILABILITY", "announced")
	viper.SetDefault("RADARR_SEARCH_FOR_MOVIE", true)
	viper.SetDefault("RADARR_CACHE_TTL_SECONDS", 120)
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("SCHEDULER_CRON", "0 23 * * 2")
	viper.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	viper.SetDefault("AUTO_ADD", true)
	viper.SetDefault("AUTO_ADD_LIMIT", 10)
	viper.SetDefault("AUTO_ADD_GENRE_FILTER_MODE", "blacklist")
	viper.SetDefault("AUTO_TAG_ENABLED", true)
	viper.SetDefault("AUTO_TAG_LABEL", "boxarr")
	viper.SetDefault("QUALITY_UPGRADE", true)
	viper.SetDefault("HISTORY_RETENTION_DAYS", 30)
	viper.SetDefault("SERVER_PORT", "8888")
	viper.SetDefault("LOG_LEVEL", "info")

	dataDir := viper.GetString("DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".config", "goboxarr")
	} else {
		absPath, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for DATA_DIR: %w", err)
		}
		dataDir = absPath
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	config := &Config{
		TraktClientID: viper.GetString("TRAKT_CLIENT_ID"),
		TraktAPIURL:   viper.GetString("TRAKT_API_URL"),

		RadarrURL:                        viper.GetString("RADARR_URL"),
		RadarrAPIKey:                     viper.GetString("RADARR_API_KEY"),
		RadarrRootFolder:                 viper.GetString("RADARR_ROOT_FOLDER"),
		RadarrQualityProfileDefault:      viper.GetString("RADARR_QUALITY_PROFILE_DEFAULT"),
		RadarrQualityProfileUpgrade:      viper.GetString("RADARR_QUALITY_PROFILE_UPGRADE"),
		RadarrMinimumAvailabilityEnabled: viper.GetBool("RADARR_MINIMUM_AVAILABILITY_ENABLED"),
		RadarrMinimumAvailability:        viper.GetString("RADARR_MINIMUM_AVAILABILITY"),
		RadarrSearchForMovie:             viper.GetBool("RADARR_SEARCH_FOR_MOVIE"),
		RadarrCacheTTLSeconds:            viper.GetInt("RADARR_CACHE_TTL_SECONDS"),

		SchedulerEnabled:  viper.GetBool("SCHEDULER_ENABLED"),
		SchedulerCron:     viper.GetString("SCHEDULER_CRON"),
		SchedulerTimezone: viper.GetString("SCHEDULER_TIMEZONE"),

		AutoAdd:                    viper.GetBool("AUTO_ADD"),
		AutoAddLimit:               viper.GetInt("AUTO_ADD_LIMIT"),
		AutoAddGenreFilterEnabled:  viper.GetBool("AUTO_ADD_GENRE_FILTER_ENABLED"),
		AutoAddGenreFilterMode:     viper.GetString("AUTO_ADD_GENRE_FILTER_MODE"),
		AutoAddGenreWhitelist:      viper.GetStringSlice("AUTO_ADD_GENRE_WHITELIST"),
		AutoAddGenreBlacklist:      viper.GetStringSlice("AUTO_ADD_GENRE_BLACKLIST"),
		AutoAddRatingFilterEnabled: viper.GetBool("AUTO_ADD_RATING_FILTER_ENABLED"),
		AutoAddRatingWhitelist:     viper.GetStringSlice("AUTO_ADD_RATING_WHITELIST"),
		AutoAddIgnoreRereleases:    viper.GetBool("AUTO_ADD_IGNORE_RERELEASES"),

		AutoTagEnabled: viper.GetBool("AUTO_TAG_ENABLED"),
		AutoTagLabel:   viper.GetString("AUTO_TAG_LABEL"),

		QualityUpgrade: viper.GetBool("QUALITY_UPGRADE"),

		DataDir:              dataDir,
		HistoryRetentionDays: viper.GetInt("HISTORY_RETENTION_DAYS"),

		ServerPort: viper.GetString("SERVER_PORT"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Apply the local override file if present
	if err := config.applyLocalOverride(config.LocalConfigFile()); err != nil {
		return nil, fmt.Errorf("failed to apply local config override: %w", err)
	}

	// Validate required fields
	if config.TraktClientID == "" {
		return nil, fmt.Errorf("TRAKT_CLIENT_ID is required")
	}
	if config.RadarrURL == "" {
		return nil, fmt.Errorf("RADARR_URL is required")
	}
	if config.RadarrAPIKey == "" {
		return nil, fmt.Errorf("RADARR_API_KEY is required")
	}

	return config, nil
}

// WeeklyPagesDir returns the directory holding weekly snapshot files.
func (c *Config) WeeklyPagesDir() string {
	return filepath.Join(c.DataDir, "weekly_pages")
}

// HistoryDir returns the directory holding pipeline run history files.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}

// LocalConfigFile returns the path of the local override file.
func (c *Config) LocalConfigFile() string {
	return filepath.Join(c.DataDir, "local.yaml")
}
