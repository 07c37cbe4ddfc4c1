package app

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/daycheck"
	"github.com/dawnstudy/attendance/internal/errors"
)

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	err := PrintResult(&buf, daycheck.Result{
		StatusCode: http.StatusOK,
		Body:       daycheck.Body{Message: "midday check completed", Day: "2025-06-02"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"midday check completed","day":"2025-06-02"}`, buf.String())

	buf.Reset()
	err = PrintResult(&buf, daycheck.Result{
		StatusCode: http.StatusInternalServerError,
		Body:       daycheck.Body{Message: "no summary message recorded for 2025-06-02"},
	})
	var resErr *ResultError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, http.StatusInternalServerError, resErr.StatusCode)
	assert.Contains(t, buf.String(), "no summary message recorded")
}

func TestParseDay(t *testing.T) {
	today := attendance.NewDay(2025, time.June, 3)

	day, err := ParseDay("", today, -1)
	require.NoError(t, err)
	assert.Equal(t, attendance.NewDay(2025, time.June, 2), day)

	day, err = ParseDay("2025-05-30", today, -1)
	require.NoError(t, err)
	assert.Equal(t, attendance.NewDay(2025, time.May, 30), day)

	_, err = ParseDay("30.05.2025", today, 0)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
