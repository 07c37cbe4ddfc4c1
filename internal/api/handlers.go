package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/daycheck"
)

// SubmissionRequest is the payload of the submission webhook sent by the
// repository workflow when a solution pull request is merged.
type SubmissionRequest struct {
	Author    string     `json:"prAuthor" validate:"required,max=100"`
	ProblemID flexibleID `json:"problemId" validate:"required,max=20"`
	Day       string     `json:"day,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// DayOffRequest marks a member as off for a day.
type DayOffRequest struct {
	MemberID string `json:"memberId" validate:"required,max=100"`
	Day      string `json:"day,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PresenceRequest records a join; a missing joinedAt means now.
type PresenceRequest struct {
	JoinedAt *time.Time `json:"joinedAt,omitempty"`
}

// ProblemSetRequest replaces the problem set of a day.
type ProblemSetRequest struct {
	Problems []string `json:"problems" validate:"required,min=1,max=50,dive,required,numeric"`
}

// RecordResponse is one attendance record in API output.
type RecordResponse struct {
	Day         attendance.Day    `json:"day"`
	MemberID    string            `json:"memberId"`
	Status      attendance.Status `json:"status"`
	JoinedAt    *time.Time        `json:"joinedAt,omitempty"`
	Submissions []string          `json:"submissions"`
}

// PresenceResponse is one presence entry in API output.
type PresenceResponse struct {
	ChannelID string    `json:"channelId"`
	MemberID  string    `json:"memberId"`
	JoinedAt  time.Time `json:"joinedAt"`
}

func writeResult(c echo.Context, res daycheck.Result) error {
	return c.JSON(res.StatusCode, res.Body)
}

// resolveDay parses raw or falls back to today minus offset days.
func (s *Server) resolveDay(raw string, offsetDays int) (attendance.Day, error) {
	if raw == "" {
		return s.jobs.Today().AddDays(-offsetDays), nil
	}
	day, err := attendance.ParseDay(raw)
	if err != nil {
		return attendance.Day{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return day, nil
}

func (s *Server) postSubmission(c echo.Context) error {
	var req SubmissionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	day, err := s.resolveDay(req.Day, 0)
	if err != nil {
		return err
	}
	return writeResult(c, s.jobs.RecordSubmission(c.Request().Context(), day, req.Author, string(req.ProblemID)))
}

func (s *Server) postDayOff(c echo.Context) error {
	var req DayOffRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	day, err := s.resolveDay(req.Day, 0)
	if err != nil {
		return err
	}
	return writeResult(c, s.jobs.MarkDayOff(c.Request().Context(), day, req.MemberID))
}

func (s *Server) runMidday(c echo.Context) error {
	day, err := s.resolveDay(c.QueryParam("day"), 0)
	if err != nil {
		return err
	}
	return writeResult(c, s.jobs.MiddayCheck(c.Request().Context(), day))
}

func (s *Server) runDayEnd(c echo.Context) error {
	day, err := s.resolveDay(c.QueryParam("day"), s.config.DayEndOffsetDays)
	if err != nil {
		return err
	}
	return writeResult(c, s.jobs.DayEndReassessment(c.Request().Context(), day))
}

func (s *Server) runCheckIn(c echo.Context) error {
	day, err := s.resolveDay(c.QueryParam("day"), 0)
	if err != nil {
		return err
	}
	return writeResult(c, s.jobs.CheckIn(c.Request().Context(), day))
}

func (s *Server) runWeekly(c echo.Context) error {
	day, err := s.resolveDay(c.QueryParam("day"), 0)
	if err != nil {
		return err
	}
	announce := false
	if raw := c.QueryParam("announce"); raw != "" {
		if announce, err = strconv.ParseBool(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "announce must be a boolean")
		}
	}
	return writeResult(c, s.jobs.WeeklyReport(c.Request().Context(), day, announce))
}

func (s *Server) listPresence(c echo.Context) error {
	entries, err := s.store.ListPresence(c.Request().Context(), c.Param("channel"))
	if err != nil {
		return err
	}
	out := make([]PresenceResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, PresenceResponse{ChannelID: e.ChannelID, MemberID: e.MemberID, JoinedAt: e.JoinedAt})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) putPresence(c echo.Context) error {
	var req PresenceRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return err
		}
	}
	joinedAt := s.now()
	if req.JoinedAt != nil {
		joinedAt = *req.JoinedAt
	}
	if err := s.store.UpsertPresence(c.Request().Context(), c.Param("channel"), c.Param("member"), joinedAt); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deletePresence(c echo.Context) error {
	if err := s.store.DeletePresence(c.Request().Context(), c.Param("channel"), c.Param("member")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getProblems(c echo.Context) error {
	day, err := s.resolveDay(c.Param("day"), 0)
	if err != nil {
		return err
	}
	problems, err := s.store.GetProblemSet(c.Request().Context(), day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"day": day, "problems": problems})
}

func (s *Server) putProblems(c echo.Context) error {
	day, err := s.resolveDay(c.Param("day"), 0)
	if err != nil {
		return err
	}
	var req ProblemSetRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	problems := make([]string, 0, len(req.Problems))
	for _, raw := range req.Problems {
		id, err := daycheck.NormalizeProblemID(raw)
		if err != nil {
			return err
		}
		problems = append(problems, id)
	}
	if err := s.store.PutProblemSet(c.Request().Context(), day, problems); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"day": day, "problems": problems})
}

func (s *Server) getRecords(c echo.Context) error {
	day, err := s.resolveDay(c.Param("day"), 0)
	if err != nil {
		return err
	}
	records, err := s.store.ListRecords(c.Request().Context(), day, day)
	if err != nil {
		return err
	}
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, RecordResponse{
			Day:         r.Day,
			MemberID:    r.MemberID,
			Status:      r.Status,
			JoinedAt:    r.JoinedAt,
			Submissions: r.Submissions,
		})
	}
	return c.JSON(http.StatusOK, out)
}
