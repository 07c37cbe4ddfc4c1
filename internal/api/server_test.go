package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/daycheck"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache janitors of rate limiters live for the process
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

const testToken = "s3cret-token"

var today = attendance.NewDay(2025, time.June, 3)

type call struct {
	job  string
	day  attendance.Day
	args []string
}

type fakeJobs struct {
	mu     sync.Mutex
	calls  []call
	result daycheck.Result
}

func (f *fakeJobs) record(job string, day attendance.Day, args ...string) daycheck.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{job: job, day: day, args: args})
	if f.result.StatusCode != 0 {
		return f.result
	}
	return daycheck.Result{StatusCode: http.StatusOK, Body: daycheck.Body{Message: job + " ok", Day: day.String()}}
}

func (f *fakeJobs) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *fakeJobs) Today() attendance.Day { return today }

func (f *fakeJobs) MiddayCheck(_ context.Context, day attendance.Day) daycheck.Result {
	return f.record(daycheck.JobMidday, day)
}

func (f *fakeJobs) DayEndReassessment(_ context.Context, day attendance.Day) daycheck.Result {
	return f.record(daycheck.JobDayEnd, day)
}

func (f *fakeJobs) CheckIn(_ context.Context, day attendance.Day) daycheck.Result {
	return f.record(daycheck.JobCheckIn, day)
}

func (f *fakeJobs) WeeklyReport(_ context.Context, day attendance.Day, announce bool) daycheck.Result {
	return f.record(daycheck.JobWeekly, day, fmt.Sprint(announce))
}

func (f *fakeJobs) RecordSubmission(_ context.Context, day attendance.Day, author, problemID string) daycheck.Result {
	return f.record(daycheck.JobSubmission, day, author, problemID)
}

func (f *fakeJobs) MarkDayOff(_ context.Context, day attendance.Day, memberID string) daycheck.Result {
	return f.record(daycheck.JobDayOff, day, memberID)
}

type fakeStore struct {
	mu       sync.Mutex
	pingErr  error
	problems map[attendance.Day][]string
	presence map[string]time.Time
	records  []datastore.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{problems: map[attendance.Day][]string{}, presence: map[string]time.Time{}}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListRecords(_ context.Context, from, to attendance.Day) ([]datastore.Record, error) {
	var out []datastore.Record
	for _, r := range f.records {
		if !r.Day.Before(from) && !to.Before(r.Day) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProblemSet(_ context.Context, day attendance.Day) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.problems[day]
	if !ok {
		return nil, errors.New(fmt.Errorf("problem set %s: %w", day, datastore.ErrNotFound)).
			Category(errors.CategoryNotFound).
			Build()
	}
	return p, nil
}

func (f *fakeStore) PutProblemSet(_ context.Context, day attendance.Day, problems []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.problems[day] = problems
	return nil
}

func (f *fakeStore) UpsertPresence(_ context.Context, channelID, memberID string, joinedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence[channelID+"/"+memberID] = joinedAt
	return nil
}

func (f *fakeStore) DeletePresence(_ context.Context, channelID, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.presence, channelID+"/"+memberID)
	return nil
}

func (f *fakeStore) ListPresence(_ context.Context, channelID string) ([]datastore.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []datastore.Presence
	for key, at := range f.presence {
		if ch, member, _ := strings.Cut(key, "/"); ch == channelID {
			out = append(out, datastore.Presence{ChannelID: ch, MemberID: member, JoinedAt: at})
		}
	}
	return out, nil
}

type testServer struct {
	srv     *Server
	jobs    *fakeJobs
	store   *fakeStore
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &Config{
		Listen:           "127.0.0.1:0",
		TokenHash:        string(hash),
		DayEndOffsetDays: 1,
		ShutdownTimeout:  time.Second,
		BodyLimit:        DefaultBodyLimit,
	}
	for _, m := range mutate {
		m(cfg)
	}

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	ts := &testServer{jobs: &fakeJobs{}, store: newFakeStore(), metrics: metrics}
	ts.srv, err = New(cfg, ts.jobs, ts.store,
		WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)),
		WithMetrics(metrics))
	require.NoError(t, err)
	ts.srv.now = func() time.Time { return time.Date(2025, time.June, 3, 7, 0, 0, 0, time.UTC) }
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSubmissionWebhook(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/submissions", `{"prAuthor":"KII1ua","problemId":1000}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := ts.jobs.last(t)
	assert.Equal(t, daycheck.JobSubmission, got.job)
	assert.Equal(t, today, got.day)
	assert.Equal(t, []string{"KII1ua", "1000"}, got.args)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = ts.do(t, http.MethodPost, "/api/v1/submissions", `{"prAuthor":"KII1ua","problemId":"1001","day":"2025-06-02"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, attendance.NewDay(2025, time.June, 2), ts.jobs.last(t).day)
}

func TestSubmissionWebhook_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing author", `{"problemId":"1000"}`, "prAuthor"},
		{"missing problem", `{"prAuthor":"kslvy"}`, "problemId"},
		{"bad day", `{"prAuthor":"kslvy","problemId":"1","day":"06/02/2025"}`, "day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/submissions", tt.body, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/submissions", `{not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.jobs.calls)
}

func TestResultStatusIsPropagated(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.result = daycheck.Result{
		StatusCode: http.StatusInternalServerError,
		Body:       daycheck.Body{Message: "no summary message recorded for 2025-06-02"},
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/dayend", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[daycheck.Body](t, rec)
	assert.Equal(t, "no summary message recorded for 2025-06-02", body.Message)
}

func TestJobTriggers(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		target  string
		job     string
		day     attendance.Day
		wantArg []string
	}{
		{"/api/v1/jobs/midday", daycheck.JobMidday, today, nil},
		{"/api/v1/jobs/dayend", daycheck.JobDayEnd, today.AddDays(-1), nil},
		{"/api/v1/jobs/dayend?day=2025-06-03", daycheck.JobDayEnd, today, nil},
		{"/api/v1/jobs/checkin", daycheck.JobCheckIn, today, nil},
		{"/api/v1/jobs/weekly?announce=true", daycheck.JobWeekly, today, []string{"true"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, tt.target, "", true)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			got := ts.jobs.last(t)
			assert.Equal(t, tt.job, got.job)
			assert.Equal(t, tt.day, got.day)
			assert.Equal(t, tt.wantArg, got.args)
		})
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/midday?day=yesterday", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDayOff(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/dayoff", `{"memberId":"kslvy","day":"2025-06-04"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	got := ts.jobs.last(t)
	assert.Equal(t, []string{"kslvy"}, got.args)
	assert.Equal(t, today.AddDays(1), got.day)
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/jobs/midday", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.jobs.calls)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/midday", http.NoBody)
	req.Header.Set("Authorization", "Bearer wrong")
	wrong := httptest.NewRecorder()
	ts.srv.ServeHTTP(wrong, req)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	scrape := ts.do(t, http.MethodGet, "/metrics", "", false)
	assert.Contains(t, scrape.Body.String(), `http_auth_operations_total{auth_type="bearer",status="error"} 2`)

	open := newTestServer(t, func(c *Config) { c.TokenHash = "" })
	rec = open.do(t, http.MethodPost, "/api/v1/jobs/midday", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *Config) {
		c.RatePerSecond = 0.001
		c.RateBurst = 2
	})

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, ts.do(t, http.MethodPost, "/api/v1/jobs/checkin", "", true).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestPresenceEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/presence/voice/kslvy", `{"joinedAt":"2025-06-03T06:55:00+09:00"}`, true)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPut, "/api/v1/presence/voice/j11gen", "", true)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/presence/voice", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]PresenceResponse](t, rec)
	require.Len(t, entries, 2)

	assert.True(t, time.Date(2025, time.June, 2, 21, 55, 0, 0, time.UTC).Equal(ts.store.presence["voice/kslvy"]))
	assert.True(t, ts.srv.now().Equal(ts.store.presence["voice/j11gen"]))

	rec = ts.do(t, http.MethodDelete, "/api/v1/presence/voice/kslvy", "", true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, ts.store.presence, "voice/kslvy")
}

func TestProblemEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/problems/2025-06-03", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/problems/2025-06-03", `{"problems":["01000","1001"]}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"1000", "1001"}, ts.store.problems[today])

	rec = ts.do(t, http.MethodGet, "/api/v1/problems/2025-06-03", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"day":"2025-06-03","problems":["1000","1001"]}`, rec.Body.String())

	rec = ts.do(t, http.MethodPut, "/api/v1/problems/2025-06-03", `{"problems":[]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodPut, "/api/v1/problems/2025-06-03", `{"problems":["abc"]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	joined := time.Date(2025, time.June, 2, 22, 0, 0, 0, time.UTC)
	ts.store.records = []datastore.Record{
		{Day: today, MemberID: "kslvy", Status: attendance.StatusPresent, JoinedAt: &joined, Submissions: []string{"1000", "1001"}},
		{Day: today.AddDays(-1), MemberID: "kslvy", Status: attendance.StatusAbsent, Submissions: []string{}},
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/records/2025-06-03", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	records := decode[[]RecordResponse](t, rec)
	require.Len(t, records, 1)
	assert.Equal(t, attendance.StatusPresent, records[0].Status)
	assert.Equal(t, []string{"1000", "1001"}, records[0].Submissions)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, rec)["status"])

	ts.store.pingErr = errors.NewStd("database is closed")
	rec = ts.do(t, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ts.do(t, http.MethodPost, "/api/v1/jobs/midday", "", true)
	rec = ts.do(t, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="POST",path="/api/v1/jobs/midday",status_code="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/nothing", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")
}

func TestRunShutsDownWithContext(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- ts.srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Listen: ":8080", RatePerSecond: -1}).Validate())
	assert.NoError(t, (&Config{Listen: ":8080"}).Validate())
}
