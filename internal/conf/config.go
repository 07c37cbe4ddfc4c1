// Package conf loads and validates the attendance service configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/dawnstudy/attendance/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// AttendanceSettings holds the classification thresholds of a deployment.
type AttendanceSettings struct {
	Deadline1     string `mapstructure:"deadline1" yaml:"deadline1"` // HH:MM, inclusive
	Deadline2     string `mapstructure:"deadline2" yaml:"deadline2"` // HH:MM, inclusive
	Quota         int    `mapstructure:"quota" yaml:"quota"`
	WildcardQuota int    `mapstructure:"wildcard_quota" yaml:"wildcard_quota"`
}

// MemberSettings describes one study group participant.
type MemberSettings struct {
	ID       string   `mapstructure:"id" yaml:"id"`             // stable member id (chat username)
	Name     string   `mapstructure:"name" yaml:"name"`         // display name in summaries
	GitHub   string   `mapstructure:"github" yaml:"github"`     // GitHub login used by submission events
	Tracked  bool     `mapstructure:"tracked" yaml:"tracked"`   // included in daily checks
	Wildcard []string `mapstructure:"wildcard" yaml:"wildcard"` // weekdays (mon..sun) with a standing exemption
}

// SummarySettings customizes the rendered message.
type SummarySettings struct {
	Labels map[string]string `mapstructure:"labels" yaml:"labels"`
}

// DiscordSettings configures the chat webhook.
type DiscordSettings struct {
	WebhookURL string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Username   string        `mapstructure:"username" yaml:"username"`
}

// CheckInSettings configures the presence snapshot.
type CheckInSettings struct {
	ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`
}

// SQLiteSettings configures the SQLite store.
type SQLiteSettings struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MySQLSettings configures the MySQL store.
type MySQLSettings struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
	DSN      string `mapstructure:"dsn" yaml:"dsn"` // overrides the discrete fields when set
}

// DatabaseSettings selects and configures the record store.
type DatabaseSettings struct {
	Driver string         `mapstructure:"driver" yaml:"driver"` // sqlite or mysql
	SQLite SQLiteSettings `mapstructure:"sqlite" yaml:"sqlite"`
	MySQL  MySQLSettings  `mapstructure:"mysql" yaml:"mysql"`
}

// JobSettings configures the scheduled passes.
type JobSettings struct {
	DayEndOffsetDays int `mapstructure:"dayend_offset_days" yaml:"dayend_offset_days"`
	Concurrency      int `mapstructure:"concurrency" yaml:"concurrency"`
}

// RateLimitSettings configures per-client request limits.
type RateLimitSettings struct {
	PerSecond float64 `mapstructure:"per_second" yaml:"per_second"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// APISettings configures the HTTP intake server.
type APISettings struct {
	Enabled   bool              `mapstructure:"enabled" yaml:"enabled"`
	Listen    string            `mapstructure:"listen" yaml:"listen"`
	TokenHash string            `mapstructure:"token_hash" yaml:"token_hash"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// MQTTSettings configures the presence feed subscriber.
type MQTTSettings struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker   string `mapstructure:"broker" yaml:"broker"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Topic    string `mapstructure:"topic" yaml:"topic"`
	QoS      byte   `mapstructure:"qos" yaml:"qos"`
}

// AlertSettings configures operator alerts for failed jobs.
type AlertSettings struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	URLs     []string      `mapstructure:"urls" yaml:"urls"`         // shoutrrr service URLs
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"` // repeats of the same alert are dropped within this window
}

// SentrySettings configures error telemetry.
type SentrySettings struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	MinPriority string `mapstructure:"min_priority" yaml:"min_priority"`
}

// MetricsSettings toggles the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Settings contains all configuration options for the attendance service.
type Settings struct {
	Debug      bool                 `mapstructure:"debug" yaml:"debug"`
	Timezone   string               `mapstructure:"timezone" yaml:"timezone"`
	Logging    logger.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Attendance AttendanceSettings   `mapstructure:"attendance" yaml:"attendance"`
	Members    []MemberSettings     `mapstructure:"members" yaml:"members"`
	Wildcards  map[string][]string  `mapstructure:"wildcards" yaml:"wildcards"` // YYYY-MM-DD -> member ids
	Summary    SummarySettings      `mapstructure:"summary" yaml:"summary"`
	Discord    DiscordSettings      `mapstructure:"discord" yaml:"discord"`
	CheckIn    CheckInSettings      `mapstructure:"checkin" yaml:"checkin"`
	Database   DatabaseSettings     `mapstructure:"database" yaml:"database"`
	Jobs       JobSettings          `mapstructure:"jobs" yaml:"jobs"`
	API        APISettings          `mapstructure:"api" yaml:"api"`
	MQTT       MQTTSettings         `mapstructure:"mqtt" yaml:"mqtt"`
	Alerts     AlertSettings        `mapstructure:"alerts" yaml:"alerts"`
	Sentry     SentrySettings       `mapstructure:"sentry" yaml:"sentry"`
	Metrics    MetricsSettings      `mapstructure:"metrics" yaml:"metrics"`
}

// Location resolves the configured civil time zone.
func (s *Settings) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables.
// An explicit configFile takes precedence over the default search paths.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, fmt.Errorf("error resolving secrets: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the most recently loaded settings, or nil.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

func initViper(configFile string) error {
	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return err
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the config search path in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}
	return []string{
		filepath.Join(home, ".config", "attendance"),
		".",
		"/etc/attendance",
	}, nil
}

func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")
	data, err := DefaultConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	fmt.Println("Created default config file at:", configPath)

	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// DefaultConfig returns the embedded default configuration file.
func DefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}
