package daycheck

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/summary"
)

// Result is the outcome of one invocation, shaped like an HTTP response.
type Result struct {
	StatusCode int  `json:"statusCode"`
	Body       Body `json:"body"`
}

// Body is the JSON payload of a Result.
type Body struct {
	Message     string         `json:"message"`
	Day         string         `json:"day,omitempty"`
	Results     []MemberResult `json:"results,omitempty"`
	Member      string         `json:"member,omitempty"`
	Submissions []string       `json:"submissions,omitempty"`
	MessageIDs  []string       `json:"messageIds,omitempty"`
	Report      *summary.Week  `json:"report,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// MemberResult is one member's outcome of a classification pass.
type MemberResult struct {
	Member      string            `json:"member"`
	Name        string            `json:"name"`
	Status      attendance.Status `json:"status"`
	Label       string            `json:"label"`
	Submissions int               `json:"submissions"`
	JoinedAt    *time.Time        `json:"joinedAt,omitempty"`
	Updated     bool              `json:"updated"`
	Error       string            `json:"error,omitempty"`
}

// OK reports whether the result is a 2xx.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func ok(body Body) Result {
	return Result{StatusCode: http.StatusOK, Body: body}
}

// failure maps err onto a status code: validation 400, not found 404,
// everything else 500.
func failure(body Body, err error) Result {
	code := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err):
		code = http.StatusBadRequest
	case errors.IsNotFound(err):
		code = http.StatusNotFound
	}
	body.Error = err.Error()
	return Result{StatusCode: code, Body: body}
}

// fatal is a 500 regardless of the error category.
func fatal(body Body, err error) Result {
	body.Error = err.Error()
	return Result{StatusCode: http.StatusInternalServerError, Body: body}
}

func invalidInput(sentinel error, format string, args ...any) error {
	return errors.New(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))).
		Component("daycheck").
		Category(errors.CategoryValidation).
		Priority(errors.PriorityLow).
		Build()
}
