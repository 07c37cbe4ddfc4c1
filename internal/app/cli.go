package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/daycheck"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
)

// ResultError is returned for a job result outside the 2xx range.
type ResultError struct {
	StatusCode int
	Message    string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("job failed with status %d: %s", e.StatusCode, e.Message)
}

// With builds the application, runs fn and closes it again.
func With(ctx context.Context, settings *conf.Settings, fn func(ctx context.Context, a *App) error) error {
	a, err := New(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.log.Warn("failed to close application", logger.Error(cerr))
		}
	}()
	return fn(ctx, a)
}

// PrintResult writes the body of res and converts a non-2xx status into a
// ResultError.
func PrintResult(out io.Writer, res daycheck.Result) error {
	if err := PrintJSON(out, res.Body); err != nil {
		return err
	}
	if !res.OK() {
		return &ResultError{StatusCode: res.StatusCode, Message: res.Body.Message}
	}
	return nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// ParseDay parses a YYYY-MM-DD day. An empty value means today shifted by
// offsetDays.
func ParseDay(raw string, today attendance.Day, offsetDays int) (attendance.Day, error) {
	if raw == "" {
		return today.AddDays(offsetDays), nil
	}
	day, err := attendance.ParseDay(raw)
	if err != nil {
		return attendance.Day{}, errors.New(err).
			Component("cli").
			Category(errors.CategoryValidation).
			Context("day", raw).
			Build()
	}
	return day, nil
}
