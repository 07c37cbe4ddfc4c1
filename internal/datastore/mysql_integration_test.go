//go:build integration

package datastore

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/logger"
)

func TestMySQLStore(t *testing.T) {
	ctx := t.Context()

	container, err := tcmysql.Run(ctx, "mysql:8.4",
		tcmysql.WithDatabase("attendance"),
		tcmysql.WithUsername("attendance"),
		tcmysql.WithPassword("attendance"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := Open(ctx, conf.DatabaseSettings{
		Driver: "mysql",
		MySQL:  conf.MySQLSettings{DSN: dsn},
	}, logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	day := attendance.NewDay(2025, time.June, 2)

	require.NoError(t, store.UpdateStatus(ctx, day, "kslvy", attendance.StatusOngoing))
	subs, added, err := store.AppendSubmission(ctx, day, "kslvy", "1000")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"1000"}, subs)

	joined := time.Date(2025, time.June, 1, 22, 0, 0, 0, time.UTC)
	set, err := store.SetJoinedAt(ctx, day, "kslvy", joined)
	require.NoError(t, err)
	assert.True(t, set)

	rec, err := store.GetRecord(ctx, day, "kslvy")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOngoing, rec.Status)
	require.NotNil(t, rec.JoinedAt)
	assert.True(t, joined.Equal(*rec.JoinedAt))
}
