package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Paths       PathsConfig     `toml:"paths"`
	Catalog     CatalogConfig   `toml:"catalog"`
	Rotation    RotationConfig  `toml:"rotation"`
	Wallpaper   WallpaperConfig `toml:"wallpaper"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path (default: <root>/db)
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// PathsConfig locates the persisted files. Relative paths resolve against Root.
type PathsConfig struct {
	Root          string `toml:"root" validate:"required"`
	Cache         string `toml:"cache"`          // Image cache directory (default: <root>/cache/images)
	History       string `toml:"history"`        // History ledger file (default: <root>/history.json)
	LegacyHistory string `toml:"legacy_history"` // Line-delimited history from older releases (default: <root>/history.jsonl)
	Favorites     string `toml:"favorites"`      // Favorite/blocked key sets (default: <root>/favorites.json)
	Settings      string `toml:"settings"`       // Live user settings (default: <root>/settings.toml)
	Logs          string `toml:"logs"`           // Log directory (default: <root>/logs)
}

// CatalogConfig configures the remote card-illustration backend
type CatalogConfig struct {
	BaseURL         string `toml:"base_url" validate:"required,url"`
	RequestTimeout  string `toml:"request_timeout"`             // e.g. "30s"
	RateLimit       int    `toml:"rate_limit" validate:"min=0"` // Requests per second, 0 disables limiting
	RefreshSchedule string `toml:"refresh_schedule"`            // Cron expression for periodic refresh (empty = startup only)
}

// RotationConfig seeds settings.toml on first run
type RotationConfig struct {
	AutoRotateEnabled     bool                `toml:"auto_rotate_enabled"`
	RotateIntervalMinutes int                 `toml:"rotate_interval_minutes"`
	RotateOnAppStart      bool                `toml:"rotate_on_app_start"`
	RecentExcludeCount    int                 `toml:"recent_exclude_count" validate:"min=0"`
	PreferFavorites       bool                `toml:"prefer_favorites"`
	ExcludeBlocked        bool                `toml:"exclude_blocked"`
	ExcludeThirdEvolution bool                `toml:"exclude_third_evolution"`
	ExcludeRules          []ExcludeRuleConfig `toml:"exclude_rules" validate:"dive"`
	CacheMaxMB            int                 `toml:"cache_max_mb"`
	HistoryMaxEntries     int                 `toml:"history_max_entries" validate:"min=0"`
	TickTimeout           string              `toml:"tick_timeout"` // Upper bound on one scheduled rotation attempt, e.g. "5m"
}

// ExcludeRuleConfig is the TOML form of a rule-based exclusion
type ExcludeRuleConfig struct {
	Type  string `toml:"type" validate:"oneof=suffix prefix contains segment"`
	Value string `toml:"value" validate:"required"`
	Start int    `toml:"start" validate:"min=0"`
	End   int    `toml:"end" validate:"min=0"`
}

// WallpaperConfig selects the wallpaper-setter capability
type WallpaperConfig struct {
	// Command runs an external program to apply the image. "{path}" in Args is replaced
	// with the absolute image path; when Args has no placeholder the path is appended.
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	// Disabled forces the "unavailable" setter (useful on headless hosts)
	Disabled bool `toml:"disabled"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`                                             // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
}

// WebSocketConfig controls the event stream sent to GUI/tray clients
type WebSocketConfig struct {
	AllowedEvents []string `toml:"allowed_events"` // Empty list allows all events
	Throttle      string   `toml:"throttle"`       // Minimum spacing between broadcasts, e.g. "250ms" (empty = none)
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8787,
			Host: "127.0.0.1",
		},
		Paths: PathsConfig{
			Root: "./data",
		},
		Catalog: CatalogConfig{
			BaseURL:        "http://127.0.0.1:3000",
			RequestTimeout: "30s",
			RateLimit:      5,
		},
		Rotation: RotationConfig{
			AutoRotateEnabled:     true,
			RotateIntervalMinutes: 15,
			RotateOnAppStart:      true,
			RecentExcludeCount:    30,
			PreferFavorites:       true,
			ExcludeBlocked:        true,
			CacheMaxMB:            2048,
			HistoryMaxEntries:     100,
			TickTimeout:           "5m",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		WebSocket: WebSocketConfig{
			Throttle: "250ms",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	config.resolvePaths()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("KABEGAMI_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("KABEGAMI_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KABEGAMI_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if root := os.Getenv("KABEGAMI_DATA_ROOT"); root != "" {
		config.Paths.Root = root
	}
	if badgerPath := os.Getenv("KABEGAMI_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if baseURL := os.Getenv("KABEGAMI_CATALOG_BASE_URL"); baseURL != "" {
		config.Catalog.BaseURL = baseURL
	}
	if timeout := os.Getenv("KABEGAMI_CATALOG_REQUEST_TIMEOUT"); timeout != "" {
		config.Catalog.RequestTimeout = timeout
	}

	if command := os.Getenv("KABEGAMI_WALLPAPER_COMMAND"); command != "" {
		config.Wallpaper.Command = command
	}
	if disabled := os.Getenv("KABEGAMI_WALLPAPER_DISABLED"); disabled != "" {
		if b, err := strconv.ParseBool(disabled); err == nil {
			config.Wallpaper.Disabled = b
		}
	}

	if level := os.Getenv("KABEGAMI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("KABEGAMI_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string, dataRoot string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if dataRoot != "" {
		config.Paths.Root = dataRoot
		config.Paths.Cache = ""
		config.Paths.History = ""
		config.Paths.LegacyHistory = ""
		config.Paths.Favorites = ""
		config.Paths.Settings = ""
		config.Paths.Logs = ""
		config.Storage.Badger.Path = ""
		config.resolvePaths()
	}
}

// resolvePaths fills empty paths with their defaults under Root and makes relative paths absolute
func (c *Config) resolvePaths() {
	root := c.Paths.Root
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	c.Paths.Root = root

	resolve := func(value, fallback string) string {
		if value == "" {
			return filepath.Join(root, fallback)
		}
		if filepath.IsAbs(value) {
			return filepath.Clean(value)
		}
		return filepath.Join(root, value)
	}

	c.Paths.Cache = resolve(c.Paths.Cache, filepath.Join("cache", "images"))
	c.Paths.History = resolve(c.Paths.History, "history.json")
	c.Paths.LegacyHistory = resolve(c.Paths.LegacyHistory, "history.jsonl")
	c.Paths.Favorites = resolve(c.Paths.Favorites, "favorites.json")
	c.Paths.Settings = resolve(c.Paths.Settings, "settings.toml")
	c.Paths.Logs = resolve(c.Paths.Logs, "logs")
	c.Storage.Badger.Path = resolve(c.Storage.Badger.Path, "db")
}

// Validate checks struct constraints and the optional catalog refresh schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Catalog.RefreshSchedule != "" {
		if err := ValidateJobSchedule(c.Catalog.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid catalog refresh schedule: %w", err)
		}
	}

	return nil
}

// CatalogRequestTimeout parses Catalog.RequestTimeout, falling back to 30s
func (c *Config) CatalogRequestTimeout() time.Duration {
	return parseDurationOr(c.Catalog.RequestTimeout, 30*time.Second)
}

// RotationTickTimeout parses Rotation.TickTimeout, falling back to 5m
func (c *Config) RotationTickTimeout() time.Duration {
	return parseDurationOr(c.Rotation.TickTimeout, 5*time.Minute)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ValidateJobSchedule validates a standard five-field cron expression and
// rejects schedules that fire more often than every five minutes
func ValidateJobSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}
