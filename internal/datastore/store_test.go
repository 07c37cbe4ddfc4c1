package datastore

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

var testDay = attendance.NewDay(2025, time.June, 2)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	settings := conf.DatabaseSettings{
		Driver: "sqlite",
		SQLite: conf.SQLiteSettings{Path: filepath.Join(t.TempDir(), "attendance.db")},
	}
	store, err := Open(t.Context(), settings, logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(t.Context(), conf.DatabaseSettings{Driver: "postgres"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestStore_Ping(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ping(t.Context()))
}

func TestGetRecord_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRecord(t.Context(), testDay, "eunjin3395")
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateStatus_CreatesAndUpdatesOnlyStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, store.UpdateStatus(ctx, testDay, "kslvy", attendance.StatusOngoing))
	rec, err := store.GetRecord(ctx, testDay, "kslvy")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOngoing, rec.Status)
	assert.Empty(t, rec.Submissions)
	assert.Nil(t, rec.JoinedAt)

	joined := time.Date(2025, time.June, 1, 22, 5, 0, 0, time.UTC)
	_, err = store.SetJoinedAt(ctx, testDay, "kslvy", joined)
	require.NoError(t, err)
	_, _, err = store.AppendSubmission(ctx, testDay, "kslvy", "1000")
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(ctx, testDay, "kslvy", attendance.StatusPresent))

	rec, err = store.GetRecord(ctx, testDay, "kslvy")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, []string{"1000"}, rec.Submissions, "status update must not touch submissions")
	require.NotNil(t, rec.JoinedAt)
	assert.True(t, joined.Equal(*rec.JoinedAt), "status update must not touch joinedAt")
}

func TestSetJoinedAt_OnlyFirstJoinWins(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	first := time.Date(2025, time.June, 1, 22, 0, 0, 0, time.UTC)
	second := first.Add(30 * time.Minute)

	set, err := store.SetJoinedAt(ctx, testDay, "rimi_lim", first)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = store.SetJoinedAt(ctx, testDay, "rimi_lim", second)
	require.NoError(t, err)
	assert.False(t, set)

	rec, err := store.GetRecord(ctx, testDay, "rimi_lim")
	require.NoError(t, err)
	require.NotNil(t, rec.JoinedAt)
	assert.True(t, first.Equal(*rec.JoinedAt))
	assert.Equal(t, attendance.StatusUnset, rec.Status)
}

func TestAppendSubmission(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	subs, added, err := store.AppendSubmission(ctx, testDay, "j11gen", "1000")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"1000"}, subs)

	subs, added, err = store.AppendSubmission(ctx, testDay, "j11gen", "2000")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"1000", "2000"}, subs)

	subs, added, err = store.AppendSubmission(ctx, testDay, "j11gen", "1000")
	require.NoError(t, err)
	assert.False(t, added, "duplicate is a no-op")
	assert.Equal(t, []string{"1000", "2000"}, subs)

	require.NoError(t, store.UpdateStatus(ctx, testDay, "j11gen", attendance.StatusLate))
	_, _, err = store.AppendSubmission(ctx, testDay, "j11gen", "3000")
	require.NoError(t, err)

	rec, err := store.GetRecord(ctx, testDay, "j11gen")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, rec.Status, "appending never changes status")
}

func TestAppendSubmission_Concurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	problems := []string{"1000", "1001", "1002", "1003", "1004", "1005", "1006", "1007"}

	var wg sync.WaitGroup
	for _, p := range problems {
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := store.AppendSubmission(ctx, testDay, "eunjin3395", p)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	rec, err := store.GetRecord(ctx, testDay, "eunjin3395")
	require.NoError(t, err)
	assert.ElementsMatch(t, problems, rec.Submissions, "no lost updates and no duplicates")
}

func TestListRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	for i := range 7 {
		day := testDay.AddDays(i - 1)
		require.NoError(t, store.UpdateStatus(ctx, day, "kslvy", attendance.StatusPresent))
	}

	records, err := store.ListRecords(ctx, testDay, testDay.AddDays(4))
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, testDay, records[0].Day)
	assert.Equal(t, testDay.AddDays(4), records[4].Day)
}

func TestNotifications(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.GetNotification(ctx, testDay, KindSummary)
	require.ErrorIs(t, err, ErrNotFound)

	sentAt := time.Date(2025, time.June, 1, 22, 11, 0, 0, time.UTC)
	require.NoError(t, store.PutNotification(ctx, Notification{Day: testDay, Kind: KindSummary, MessageID: "111", SentAt: sentAt}))
	require.NoError(t, store.PutNotification(ctx, Notification{Day: testDay, Kind: KindCheckIn, MessageID: "999"}))
	require.NoError(t, store.PutNotification(ctx, Notification{Day: testDay, Kind: KindSummary, MessageID: `["222","111"]`, SentAt: sentAt.Add(time.Hour)}))

	n, err := store.GetNotification(ctx, testDay, KindSummary)
	require.NoError(t, err)
	assert.Equal(t, `["222","111"]`, n.MessageID)
	assert.True(t, sentAt.Equal(n.SentAt), "first send time is kept")

	checkin, err := store.GetNotification(ctx, testDay, KindCheckIn)
	require.NoError(t, err)
	assert.Equal(t, "999", checkin.MessageID, "kinds do not collide")

	err = store.PutNotification(ctx, Notification{Day: testDay, MessageID: "1"})
	assert.True(t, errors.IsValidation(err))
}

func TestProblemSets(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.GetProblemSet(ctx, testDay)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.PutProblemSet(ctx, testDay, []string{"1000", "1001"}))
	require.NoError(t, store.PutProblemSet(ctx, testDay, []string{"2000", "2001", "2002"}))

	problems, err := store.GetProblemSet(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"2000", "2001", "2002"}, problems)

	assert.True(t, errors.IsValidation(store.PutProblemSet(ctx, testDay, nil)))
}

func TestPresence(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	early := time.Date(2025, time.June, 1, 21, 50, 0, 0, time.UTC)
	require.NoError(t, store.UpsertPresence(ctx, "voice-1", "kslvy", early.Add(5*time.Minute)))
	require.NoError(t, store.UpsertPresence(ctx, "voice-1", "j11gen", early))
	require.NoError(t, store.UpsertPresence(ctx, "voice-1", "kslvy", early.Add(time.Hour)))
	require.NoError(t, store.UpsertPresence(ctx, "voice-2", "rimi_lim", early))

	entries, err := store.ListPresence(ctx, "voice-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "j11gen", entries[0].MemberID)
	assert.Equal(t, "kslvy", entries[1].MemberID)
	assert.True(t, early.Add(5*time.Minute).Equal(entries[1].JoinedAt), "repeat join keeps the first time")

	require.NoError(t, store.DeletePresence(ctx, "voice-1", "kslvy"))
	require.NoError(t, store.DeletePresence(ctx, "voice-1", "kslvy"))

	entries, err = store.ListPresence(ctx, "voice-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN(conf.MySQLSettings{
		Host: "db", Port: 3306, Username: "att", Password: "pw", Database: "attendance",
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "att:pw@tcp(db:3306)/attendance")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	dsn, err = mysqlDSN(conf.MySQLSettings{DSN: "u:p@tcp(h:1)/d"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = mysqlDSN(conf.MySQLSettings{DSN: "::not a dsn"})
	require.Error(t, err)
}
