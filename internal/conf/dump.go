package conf

import (
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

const redacted = "[REDACTED]"

// Redacted returns a copy of the settings with secrets masked.
func (s *Settings) Redacted() Settings {
	out := *s
	mask := func(v string) string {
		if v == "" {
			return v
		}
		return redacted
	}

	out.Discord.WebhookURL = mask(s.Discord.WebhookURL)
	out.Database.MySQL.Password = mask(s.Database.MySQL.Password)
	out.Database.MySQL.DSN = mask(s.Database.MySQL.DSN)
	out.API.TokenHash = mask(s.API.TokenHash)
	out.MQTT.Password = mask(s.MQTT.Password)
	out.Sentry.DSN = mask(s.Sentry.DSN)

	out.Alerts.URLs = slices.Clone(s.Alerts.URLs)
	for i := range out.Alerts.URLs {
		out.Alerts.URLs[i] = redacted
	}
	return out
}

// WriteYAML writes the effective configuration, secrets masked, as YAML.
func WriteYAML(w io.Writer, s *Settings) error {
	redactedSettings := s.Redacted()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&redactedSettings); err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	return enc.Close()
}
