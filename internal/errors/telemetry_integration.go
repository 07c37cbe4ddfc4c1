// Package errors - telemetry integration (optional)
package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// SentryReporter implements TelemetryReporter for Sentry.
// Only errors at or above minPriority are sent; errors without an explicit
// priority are treated as medium.
type SentryReporter struct {
	enabled     bool
	minPriority string
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool, minPriority string) *SentryReporter {
	if minPriority == "" {
		minPriority = PriorityHigh
	}
	return &SentryReporter{enabled: enabled, minPriority: minPriority}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry with the message scrubbed
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}
	if priorityRank(ee.Priority) < priorityRank(sr.minPriority) {
		return
	}

	message := scrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Err.Error()))
	title := errorTitle(ee)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_title", title)
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = scrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}
		scope.SetFingerprint([]string{title, ee.Component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = sentryLevel(ee.Category)
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

func priorityRank(priority string) int {
	switch priority {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return 1
	}
}

// errorTitle builds a grouping title like "Datastore Database Error Update Status".
func errorTitle(ee *EnhancedError) string {
	var parts []string
	if ee.Component != "" && ee.Component != ComponentUnknown {
		parts = append(parts, titleCase(ee.Component))
	}
	parts = append(parts, categoryTitle(ee.Category))
	if op, ok := ee.GetContext()["operation"].(string); ok && op != "" {
		words := strings.Fields(strings.ReplaceAll(op, "_", " "))
		for i, w := range words {
			words[i] = titleCase(w)
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, " ")
}

func categoryTitle(category ErrorCategory) string {
	switch category {
	case CategoryValidation:
		return "Validation Error"
	case CategoryNotFound:
		return "Not Found"
	case CategoryDatabase:
		return "Database Error"
	case CategoryNetwork:
		return "Network Error"
	case CategoryHTTP:
		return "HTTP Error"
	case CategoryConfiguration:
		return "Configuration Error"
	case CategoryMQTT:
		return "MQTT Error"
	default:
		return titleCase(string(category))
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func sentryLevel(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryNetwork, CategoryHTTP, CategoryTimeout, CategoryMQTT:
		return sentry.LevelWarning
	case CategoryValidation, CategoryNotFound:
		return sentry.LevelInfo
	default:
		return sentry.LevelError
	}
}

var (
	reporterMu     sync.RWMutex
	globalReporter TelemetryReporter
)

// SetTelemetryReporter sets the global telemetry reporter. Passing nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	globalReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// GetTelemetryReporter returns the current telemetry reporter
func GetTelemetryReporter() TelemetryReporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return globalReporter
}

func reportToTelemetry(ee *EnhancedError) {
	if reporter := GetTelemetryReporter(); reporter != nil && reporter.IsEnabled() {
		reporter.ReportError(ee)
	}
}

var (
	urlQueryPattern = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	webhookPattern  = regexp.MustCompile(`(/webhooks/\d+/)[\w-]+`)
	secretPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)token[=:]\S+`),
		regexp.MustCompile(`(?i)api[_-]?key[=:]\S+`),
		regexp.MustCompile(`(?i)password[=:]\S+`),
	}
)

// scrubMessage removes webhook tokens, query strings and inline secrets.
func scrubMessage(message string) string {
	scrubbed := webhookPattern.ReplaceAllString(message, "${1}[REDACTED]")
	scrubbed = urlQueryPattern.ReplaceAllString(scrubbed, "$1?[REDACTED]")
	for _, p := range secretPatterns {
		scrubbed = p.ReplaceAllString(scrubbed, "[SECRET_REDACTED]")
	}
	return scrubbed
}
