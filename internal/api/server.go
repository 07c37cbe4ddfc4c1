package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/dawnstudy/attendance/internal/api/middleware"
	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/buildinfo"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/daycheck"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/observability"
)

// Jobs is the day job surface the API triggers.
type Jobs interface {
	Today() attendance.Day
	MiddayCheck(ctx context.Context, day attendance.Day) daycheck.Result
	DayEndReassessment(ctx context.Context, day attendance.Day) daycheck.Result
	CheckIn(ctx context.Context, day attendance.Day) daycheck.Result
	WeeklyReport(ctx context.Context, day attendance.Day, announce bool) daycheck.Result
	RecordSubmission(ctx context.Context, day attendance.Day, author, problemID string) daycheck.Result
	MarkDayOff(ctx context.Context, day attendance.Day, memberID string) daycheck.Result
}

// Store is the record store surface of the admin endpoints.
type Store interface {
	Ping(ctx context.Context) error
	ListRecords(ctx context.Context, from, to attendance.Day) ([]datastore.Record, error)
	GetProblemSet(ctx context.Context, day attendance.Day) ([]string, error)
	PutProblemSet(ctx context.Context, day attendance.Day, problems []string) error
	UpsertPresence(ctx context.Context, channelID, memberID string, joinedAt time.Time) error
	DeletePresence(ctx context.Context, channelID, memberID string) error
	ListPresence(ctx context.Context, channelID string) ([]datastore.Presence, error)
}

// Server is the HTTP server of the attendance service.
type Server struct {
	echo    *echo.Echo
	config  *Config
	jobs    Jobs
	store   Store
	metrics *observability.Metrics
	log     logger.Logger
	now     func() time.Time

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// New creates the server and registers its routes.
func New(config *Config, jobs Jobs, store Store, opts ...ServerOption) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.New(fmt.Errorf("invalid server configuration: %w", err)).
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &Server{
		config:    config,
		jobs:      jobs,
		store:     store,
		now:       time.Now,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("api")
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Validator = newValidator()
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.echo.Use(mw.NewRequestLogger(s.log))
	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
	s.echo.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	var observeAuth mw.AuthObserver
	if s.metrics != nil {
		observeAuth = func(status string) { s.metrics.HTTP.RecordAuthOperation("bearer", status) }
	}
	limiter := mw.NewRateLimiter(s.config.RatePerSecond, s.config.RateBurst)

	v1 := s.echo.Group("/api/v1", limiter.Middleware(), mw.NewBearerAuth(s.config.TokenHash, observeAuth))

	v1.POST("/submissions", s.postSubmission)
	v1.POST("/dayoff", s.postDayOff)

	jobs := v1.Group("/jobs")
	jobs.POST("/midday", s.runMidday)
	jobs.POST("/dayend", s.runDayEnd)
	jobs.POST("/checkin", s.runCheckIn)
	jobs.POST("/weekly", s.runWeekly)

	v1.GET("/presence/:channel", s.listPresence)
	v1.PUT("/presence/:channel/:member", s.putPresence)
	v1.DELETE("/presence/:channel/:member", s.deletePresence)

	v1.GET("/problems/:day", s.getProblems)
	v1.PUT("/problems/:day", s.putProblems)

	v1.GET("/records/:day", s.getRecords)
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server starting", logger.String("address", s.config.Listen))
		if err := s.echo.Start(s.config.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.New(err).Component("api").Category(errors.CategoryNetwork).Build()
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return errors.New(err).Component("api").Category(errors.CategoryNetwork).Build()
	}
	return <-errCh
}

// healthCheck reports the server and store health.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	body := map[string]any{
		"status":         "healthy",
		"version":        buildinfo.Version,
		"uptime":         uptime.Round(time.Second).String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      s.now().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		body["status"] = "unhealthy"
		body["error"] = "datastore unreachable"
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, body)
}

// handleError renders every error as {"message": ..., "error": ...}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		message = fmt.Sprint(he.Message)
	case errors.IsValidation(err):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.IsNotFound(err):
		code = http.StatusNotFound
		message = err.Error()
	default:
		s.log.Error("request failed",
			logger.String("path", c.Path()),
			logger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			logger.Error(err))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, map[string]string{"message": message})
	}
	if writeErr != nil {
		s.log.Warn("failed to write error response", logger.Error(writeErr))
	}
}
