// Package datastore provides error handling helpers for database operations
package datastore

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/dawnstudy/attendance/internal/errors"
)

// ErrNotFound is wrapped by every lookup that matched no row.
var ErrNotFound = errors.NewStd("datastore: not found")

const mysqlDuplicateEntry = 1062

// dbError creates a properly categorized database error with context
func dbError(err error, operation string, context ...any) error {
	category, priority := classify(err)

	builder := errors.New(err).
		Component("datastore").
		Category(category).
		Context("operation", operation)

	if priority != "" {
		builder = builder.Priority(priority)
	}

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// notFoundError reports a missing row; entity and key end up in the message.
func notFoundError(operation, entity, key string) error {
	return errors.New(fmt.Errorf("%s %s: %w", entity, key, ErrNotFound)).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Priority(errors.PriorityLow).
		Context("operation", operation).
		Build()
}

// validationError creates a validation error for rejected arguments
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}

// classify maps driver errors onto error categories and priorities.
func classify(err error) (errors.ErrorCategory, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errors.CategoryTimeout, errors.PriorityMedium
	case errors.Is(err, context.Canceled):
		return errors.CategoryCancellation, errors.PriorityLow
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return errors.CategoryConflict, errors.PriorityMedium
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errors.CategoryState, errors.PriorityHigh
		case sqlite3.ErrConstraint:
			return errors.CategoryConflict, errors.PriorityMedium
		case sqlite3.ErrCorrupt, sqlite3.ErrFull:
			return errors.CategoryDatabase, errors.PriorityCritical
		}
	}

	return errors.CategoryDatabase, errors.PriorityHigh
}
