// Package privacy scrubs credentials out of text that leaves the process:
// log lines, operator alerts and error telemetry. Webhook and notification
// URLs carry their secret in the path, so any URL is reduced to scheme and
// host.
package privacy

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[redacted]"

var (
	// Shoutrrr service URLs use their own schemes (discord://, telegram://...).
	urlPattern = regexp.MustCompile(`\b[a-z][a-z0-9+.-]{1,15}://[^\s"'<>]+`)

	// Authorization header values that end up in error strings.
	bearerPattern = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`)
)

// ScrubMessage replaces every URL in message with its redacted form and
// masks bearer tokens.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, RedactURL)
	return bearerPattern.ReplaceAllString(message, "Bearer "+redacted)
}

// RedactURL keeps the scheme and host of rawURL and drops credentials, path,
// query and fragment. Unparseable input is replaced entirely.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return redacted
	}
	host := u.Host
	if u.User != nil || strings.Contains(host, "@") {
		// token@host forms of shoutrrr URLs
		host = host[strings.LastIndex(host, "@")+1:]
	}
	if host == "" {
		return u.Scheme + "://" + redacted
	}
	if u.Path == "" && u.RawQuery == "" && u.Fragment == "" && u.User == nil {
		return u.Scheme + "://" + host
	}
	return u.Scheme + "://" + host + "/" + redacted
}
