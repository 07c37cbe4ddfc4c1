package conf

import (
	"fmt"

	"github.com/dawnstudy/attendance/internal/secrets"
)

// resolveSecrets replaces ${VAR} and file: references in secret fields with
// their values.
func resolveSecrets(s *Settings) error {
	fields := map[string]*string{
		"discord.webhook_url":     &s.Discord.WebhookURL,
		"database.mysql.password": &s.Database.MySQL.Password,
		"database.mysql.dsn":      &s.Database.MySQL.DSN,
		"mqtt.password":           &s.MQTT.Password,
		"sentry.dsn":              &s.Sentry.DSN,
	}
	for key, field := range fields {
		value, err := secrets.Resolve(*field)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*field = value
	}

	for i, raw := range s.Alerts.URLs {
		value, err := secrets.Resolve(raw)
		if err != nil {
			return fmt.Errorf("alerts.urls[%d]: %w", i, err)
		}
		s.Alerts.URLs[i] = value
	}
	return nil
}
