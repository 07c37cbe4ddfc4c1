// Package daycheck runs the attendance day jobs: the midday check, the
// end-of-day reassessment, submission recording, the presence check-in,
// day-off marking and the weekly report.
//
// Every operation is an independent invocation that reads the record store,
// classifies, writes targeted updates back and publishes or amends a chat
// message. Operations return a Result instead of failing so callers (CLI,
// HTTP) can map it onto their own surface.
package daycheck

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/correlator"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/summary"
)

// Job names used in logs, metrics and alerts.
const (
	JobMidday     = "midday"
	JobDayEnd     = "dayend"
	JobSubmission = "submission"
	JobCheckIn    = "checkin"
	JobDayOff     = "dayoff"
	JobWeekly     = "weekly"
)

const defaultConcurrency = 4

// Store is the subset of the record store the jobs use.
type Store interface {
	GetRecord(ctx context.Context, day attendance.Day, memberID string) (datastore.Record, error)
	UpdateStatus(ctx context.Context, day attendance.Day, memberID string, status attendance.Status) error
	SetJoinedAt(ctx context.Context, day attendance.Day, memberID string, joinedAt time.Time) (bool, error)
	AppendSubmission(ctx context.Context, day attendance.Day, memberID, problemID string) ([]string, bool, error)
	ListRecords(ctx context.Context, from, to attendance.Day) ([]datastore.Record, error)
	GetProblemSet(ctx context.Context, day attendance.Day) ([]string, error)
	ListPresence(ctx context.Context, channelID string) ([]datastore.Presence, error)
}

// Publisher posts and corrects chat messages.
type Publisher interface {
	Publish(ctx context.Context, day attendance.Day, kind, text string) (correlator.MessageHandles, error)
	Amend(ctx context.Context, day attendance.Day, kind, text string) (correlator.MessageHandles, error)
	Announce(ctx context.Context, text string) (string, error)
}

// Observer receives job outcomes, typically for metrics.
type Observer interface {
	JobCompleted(job string, statusCode int, elapsed time.Duration)
	StatusAssigned(job string, status attendance.Status)
	SubmissionRecorded(outcome string)
	MemberFailed(job, operation string)
}

// Alerter notifies operators about failed jobs.
type Alerter interface {
	Alert(ctx context.Context, title, message string) error
}

// Config is the deployment configuration of the jobs.
type Config struct {
	Policy         attendance.Policy
	Roster         *attendance.Roster
	Renderer       *summary.Renderer
	CheckInChannel string
	Concurrency    int
}

// Service runs the day jobs. It holds no per-day state and is safe for
// concurrent use.
type Service struct {
	cfg       Config
	store     Store
	publisher Publisher
	log       logger.Logger
	observer  Observer
	alerter   Alerter
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithObserver sets the job outcome observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithAlerter sets the operator alerter used for failed jobs.
func WithAlerter(a Alerter) Option {
	return func(s *Service) { s.alerter = a }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(cfg Config, store Store, publisher Publisher, opts ...Option) (*Service, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, errors.New(err).Component("daycheck").Category(errors.CategoryConfiguration).Build()
	}
	if cfg.Roster == nil || store == nil || publisher == nil {
		return nil, errors.Newf("roster, store and publisher are required").
			Component("daycheck").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = summary.NewRenderer(nil, cfg.Policy.Location)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}

	s := &Service{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("daycheck")
	}
	return s, nil
}

// Policy returns the classification policy.
func (s *Service) Policy() attendance.Policy {
	return s.cfg.Policy
}

// Today returns the current civil day.
func (s *Service) Today() attendance.Day {
	return s.cfg.Policy.Today(s.now())
}

// begin tags ctx with a run id and returns the job logger and a finish
// function that records the outcome.
func (s *Service) begin(ctx context.Context, job string, fields ...logger.Field) (context.Context, logger.Logger, func(*Result)) {
	runID := uuid.NewString()
	ctx = logger.WithTraceID(ctx, runID)
	log := s.log.WithContext(ctx).With(append([]logger.Field{logger.String("job", job)}, fields...)...)
	start := time.Now()

	log.Debug("job started")
	return ctx, log, func(res *Result) {
		elapsed := time.Since(start)
		s.observer.JobCompleted(job, res.StatusCode, elapsed)

		fields := []logger.Field{logger.Int("status_code", res.StatusCode), logger.Duration("elapsed", elapsed)}
		if res.StatusCode >= 500 {
			log.Error("job failed", append(fields, logger.String("message", res.Body.Message))...)
			s.alert(ctx, log, job, res)
			return
		}
		log.Info("job completed", fields...)
	}
}

func (s *Service) alert(ctx context.Context, log logger.Logger, job string, res *Result) {
	if s.alerter == nil {
		return
	}
	title := "attendance " + job + " failed"
	if res.Body.Day != "" {
		title += " for " + res.Body.Day
	}
	if err := s.alerter.Alert(ctx, title, res.Body.Message); err != nil {
		log.Warn("failed to send operator alert", logger.Error(err))
	}
}

// eachMember runs fn for every member with bounded concurrency. fn records
// its own failures; results are written by index so roster order is kept.
func (s *Service) eachMember(ctx context.Context, members []attendance.Member, fn func(ctx context.Context, i int, m attendance.Member)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, m := range members {
		g.Go(func() error {
			fn(gctx, i, m)
			return nil
		})
	}
	_ = g.Wait()
}

// loadRecord fetches a member's record; a missing record is an empty one.
func (s *Service) loadRecord(ctx context.Context, day attendance.Day, memberID string) (datastore.Record, error) {
	rec, err := s.store.GetRecord(ctx, day, memberID)
	if errors.Is(err, datastore.ErrNotFound) {
		return datastore.Record{Day: day, MemberID: memberID, Status: attendance.StatusUnset, Submissions: []string{}}, nil
	}
	return rec, err
}

type nopObserver struct{}

func (nopObserver) JobCompleted(string, int, time.Duration)  {}
func (nopObserver) StatusAssigned(string, attendance.Status) {}
func (nopObserver) SubmissionRecorded(string)                {}
func (nopObserver) MemberFailed(string, string)              {}
