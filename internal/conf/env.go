// env.go - environment variable configuration and validation
package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/dawnstudy/attendance/internal/secrets"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "ATTENDANCE_DEBUG", validateEnvBool},
		{"timezone", "ATTENDANCE_TIMEZONE", validateEnvTimezone},

		{"discord.webhook_url", "ATTENDANCE_DISCORD_WEBHOOK", validateEnvURL},
		{"checkin.channel_id", "ATTENDANCE_CHECKIN_CHANNEL", nil},

		{"database.driver", "ATTENDANCE_DB_DRIVER", validateEnvDriver},
		{"database.sqlite.path", "ATTENDANCE_SQLITE_PATH", nil},
		{"database.mysql.dsn", "ATTENDANCE_MYSQL_DSN", validateEnvMySQLDSN},
		{"database.mysql.password", "ATTENDANCE_MYSQL_PASSWORD", nil},

		{"jobs.dayend_offset_days", "ATTENDANCE_DAYEND_OFFSET", validateEnvNonNegativeInt},

		{"api.listen", "ATTENDANCE_API_LISTEN", nil},
		{"api.token_hash", "ATTENDANCE_API_TOKEN_HASH", validateEnvBcryptHash},

		{"mqtt.broker", "ATTENDANCE_MQTT_BROKER", validateEnvURL},
		{"mqtt.username", "ATTENDANCE_MQTT_USERNAME", nil},
		{"mqtt.password", "ATTENDANCE_MQTT_PASSWORD", nil},

		{"sentry.dsn", "ATTENDANCE_SENTRY_DSN", validateEnvURL},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			// secret file references are checked once resolved
			if envValue := os.Getenv(binding.EnvVar); envValue != "" && !strings.HasPrefix(envValue, secrets.FilePrefix) {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", binding.EnvVar, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvTimezone(value string) error {
	if _, err := time.LoadLocation(value); err != nil {
		return fmt.Errorf("unknown time zone %q", value)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

func validateEnvDriver(value string) error {
	switch value {
	case "sqlite", "mysql":
		return nil
	default:
		return fmt.Errorf("must be sqlite or mysql")
	}
}

func validateEnvMySQLDSN(value string) error {
	if _, err := mysql.ParseDSN(value); err != nil {
		return fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateEnvBcryptHash(value string) error {
	if _, err := bcrypt.Cost([]byte(value)); err != nil {
		return fmt.Errorf("must be a bcrypt hash: %w", err)
	}
	return nil
}
