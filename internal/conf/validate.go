package conf

import (
	"fmt"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dawnstudy/attendance/internal/attendance"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("timezone: unknown zone %q", settings.Timezone))
	} else if _, err := settings.Policy(); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("attendance: %v", err))
	}

	if len(settings.Members) == 0 {
		ve.Errors = append(ve.Errors, "members: at least one member is required")
	} else if _, err := settings.Roster(); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("members: %v", err))
	}

	for key := range settings.Summary.Labels {
		if _, err := attendance.ParseStatus(key); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("summary.labels: %v", err))
		}
	}

	if settings.Discord.WebhookURL != "" {
		if u, err := url.Parse(settings.Discord.WebhookURL); err != nil || u.Scheme != "https" || u.Host == "" {
			ve.Errors = append(ve.Errors, "discord.webhook_url: must be an https URL")
		}
	}
	if settings.Discord.Timeout <= 0 {
		ve.Errors = append(ve.Errors, "discord.timeout: must be positive")
	}

	switch settings.Database.Driver {
	case "sqlite":
		if settings.Database.SQLite.Path == "" {
			ve.Errors = append(ve.Errors, "database.sqlite.path: required for the sqlite driver")
		}
	case "mysql":
		if settings.Database.MySQL.DSN == "" && settings.Database.MySQL.Host == "" {
			ve.Errors = append(ve.Errors, "database.mysql: host or dsn is required for the mysql driver")
		}
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf("database.driver: unsupported driver %q", settings.Database.Driver))
	}

	if settings.Jobs.DayEndOffsetDays < 0 {
		ve.Errors = append(ve.Errors, "jobs.dayend_offset_days: must not be negative")
	}
	if settings.Jobs.Concurrency < 1 {
		ve.Errors = append(ve.Errors, "jobs.concurrency: must be at least 1")
	}

	if settings.API.TokenHash != "" {
		if _, err := bcrypt.Cost([]byte(settings.API.TokenHash)); err != nil {
			ve.Errors = append(ve.Errors, "api.token_hash: must be a bcrypt hash")
		}
	}
	if settings.API.RateLimit.PerSecond < 0 || settings.API.RateLimit.Burst < 0 {
		ve.Errors = append(ve.Errors, "api.rate_limit: values must not be negative")
	}

	if settings.MQTT.Enabled {
		if settings.MQTT.Broker == "" || settings.MQTT.Topic == "" {
			ve.Errors = append(ve.Errors, "mqtt: broker and topic are required when enabled")
		}
		if settings.MQTT.QoS > 2 {
			ve.Errors = append(ve.Errors, "mqtt.qos: must be 0, 1 or 2")
		}
	}

	if settings.Alerts.Enabled && len(settings.Alerts.URLs) == 0 {
		ve.Errors = append(ve.Errors, "alerts.urls: at least one URL is required when enabled")
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn: required when enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
