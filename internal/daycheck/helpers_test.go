package daycheck

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/correlator"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/discord"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/summary"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

var (
	seoul  = mustLocation("Asia/Seoul")
	monday = attendance.NewDay(2025, time.June, 2)
)

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func at(day attendance.Day, hour, minute int) time.Time {
	return day.At(attendance.Clock{Hour: hour, Minute: minute}, seoul)
}

// fakeChannel is an in-memory chat channel.
type fakeChannel struct {
	mu       sync.Mutex
	next     int
	messages map[string]string
	calls    []string
	fail     error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{next: 1000, messages: map[string]string{}}
}

func (f *fakeChannel) Send(_ context.Context, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "send")
	if f.fail != nil {
		return "", f.fail
	}
	f.next++
	id := fmt.Sprint(f.next)
	f.messages[id] = content
	return id, nil
}

func (f *fakeChannel) Edit(_ context.Context, id, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "edit:"+id)
	if f.fail != nil {
		return f.fail
	}
	if _, ok := f.messages[id]; !ok {
		return discord.ErrUnknownMessage
	}
	f.messages[id] = content
	return nil
}

func (f *fakeChannel) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+id)
	if _, ok := f.messages[id]; !ok {
		return discord.ErrUnknownMessage
	}
	delete(f.messages, id)
	return nil
}

func (f *fakeChannel) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeChannel) Message(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[id]
}

// recordingObserver counts observer callbacks.
type recordingObserver struct {
	mu          sync.Mutex
	jobs        map[string]int
	statuses    map[attendance.Status]int
	submissions map[string]int
	failures    int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{jobs: map[string]int{}, statuses: map[attendance.Status]int{}, submissions: map[string]int{}}
}

func (o *recordingObserver) JobCompleted(job string, code int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobs[fmt.Sprintf("%s/%d", job, code)]++
}

func (o *recordingObserver) StatusAssigned(_ string, st attendance.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses[st]++
}

func (o *recordingObserver) SubmissionRecorded(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submissions[outcome]++
}

func (o *recordingObserver) MemberFailed(string, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

type recordingAlerter struct {
	mu     sync.Mutex
	titles []string
}

func (a *recordingAlerter) Alert(_ context.Context, title, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.titles = append(a.titles, title)
	return nil
}

type harness struct {
	svc      *Service
	store    *datastore.Store
	channel  *fakeChannel
	observer *recordingObserver
	alerter  *recordingAlerter
	clock    time.Time
}

func testRoster(t *testing.T) *attendance.Roster {
	t.Helper()
	roster, err := attendance.NewRoster([]attendance.Member{
		{ID: "eunjin3395", Name: "은진", GitHub: "Eunjin3395", Tracked: true},
		{ID: "j11gen", Name: "성윤", GitHub: "KII1ua", Tracked: true},
		{ID: "kslvy", Name: "경은", Tracked: true},
		{ID: "rimi_lim", Name: "효림", Tracked: true},
		{ID: "guest", Name: "손님"},
	}, map[attendance.Day][]string{monday: {"rimi_lim"}})
	require.NoError(t, err)
	return roster
}

func newHarness(t *testing.T, wrap ...func(Store) Store) *harness {
	t.Helper()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)

	store, err := datastore.Open(t.Context(), conf.DatabaseSettings{
		Driver: "sqlite",
		SQLite: conf.SQLiteSettings{Path: filepath.Join(t.TempDir(), "attendance.db")},
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		store:    store,
		channel:  newFakeChannel(),
		observer: newRecordingObserver(),
		alerter:  &recordingAlerter{},
		clock:    at(monday, 8, 31),
	}

	var svcStore Store = store
	for _, w := range wrap {
		svcStore = w(svcStore)
	}

	policy := attendance.Policy{
		Location:      seoul,
		Deadline1:     attendance.Clock{Hour: 7, Minute: 11},
		Deadline2:     attendance.Clock{Hour: 8, Minute: 31},
		Quota:         2,
		WildcardQuota: 1,
	}
	h.svc, err = New(Config{
		Policy:         policy,
		Roster:         testRoster(t),
		Renderer:       summary.NewRenderer(nil, seoul),
		CheckInChannel: "voice",
		Concurrency:    2,
	}, svcStore, correlator.New(h.channel, store, log),
		WithLogger(log),
		WithObserver(h.observer),
		WithAlerter(h.alerter),
		WithClock(func() time.Time { return h.clock }),
	)
	require.NoError(t, err)

	require.NoError(t, store.PutProblemSet(t.Context(), monday, []string{"1000", "1001", "1002"}))
	return h
}

func (h *harness) join(t *testing.T, member string, when time.Time) {
	t.Helper()
	_, err := h.store.SetJoinedAt(t.Context(), monday, member, when)
	require.NoError(t, err)
}

func (h *harness) status(t *testing.T, member string) attendance.Status {
	t.Helper()
	rec, err := h.store.GetRecord(t.Context(), monday, member)
	require.NoError(t, err)
	return rec.Status
}

func resultFor(t *testing.T, res Result, member string) MemberResult {
	t.Helper()
	for _, r := range res.Body.Results {
		if r.Member == member {
			return r
		}
	}
	t.Fatalf("no result for %s", member)
	return MemberResult{}
}
