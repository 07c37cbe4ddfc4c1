package daycheck

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
)

// Input errors of RecordSubmission and MarkDayOff.
var (
	ErrUnknownMember  = errors.NewStd("unknown member")
	ErrInvalidProblem = errors.NewStd("invalid problem")
	ErrStatusSettled  = errors.NewStd("status already settled")
)

// Submission outcomes reported to the observer.
const (
	SubmissionAdded     = "added"
	SubmissionDuplicate = "duplicate"
	SubmissionRejected  = "rejected"
	SubmissionFailed    = "failed"
)

// RecordSubmission appends problemID to the submissions of the member who
// authored the event, if the problem belongs to day's problem set. Recording
// an id twice is a successful no-op. Status is never changed.
func (s *Service) RecordSubmission(ctx context.Context, day attendance.Day, author, problemID string) (res Result) {
	ctx, log, finish := s.begin(ctx, JobSubmission,
		logger.String("day", day.String()),
		logger.String("author", author),
		logger.String("problem", problemID))
	defer func() { finish(&res) }()

	body := Body{Day: day.String()}

	member, found := s.cfg.Roster.ResolveSubmitter(author)
	if !found {
		s.observer.SubmissionRecorded(SubmissionRejected)
		body.Message = "submission rejected"
		return failure(body, invalidInput(ErrUnknownMember, "%q is not on the roster", author))
	}
	body.Member = member.ID

	problem, err := NormalizeProblemID(problemID)
	if err != nil {
		s.observer.SubmissionRecorded(SubmissionRejected)
		body.Message = "submission rejected"
		return failure(body, err)
	}

	valid, err := s.store.GetProblemSet(ctx, day)
	switch {
	case errors.Is(err, datastore.ErrNotFound):
		s.observer.SubmissionRecorded(SubmissionRejected)
		body.Message = "submission rejected"
		return failure(body, invalidInput(ErrInvalidProblem, "no problem set for %s", day))
	case err != nil:
		s.observer.SubmissionRecorded(SubmissionFailed)
		body.Message = "failed to read the problem set"
		return fatal(body, err)
	}
	if !slices.ContainsFunc(valid, func(id string) bool {
		normalized, err := NormalizeProblemID(id)
		return err == nil && normalized == problem
	}) {
		s.observer.SubmissionRecorded(SubmissionRejected)
		body.Message = "submission rejected"
		return failure(body, invalidInput(ErrInvalidProblem, "problem %s is not assigned on %s", problem, day))
	}

	subs, added, err := s.store.AppendSubmission(ctx, day, member.ID, problem)
	if err != nil {
		s.observer.SubmissionRecorded(SubmissionFailed)
		body.Message = "failed to record the submission"
		return fatal(body, err)
	}

	body.Submissions = subs
	if !added {
		s.observer.SubmissionRecorded(SubmissionDuplicate)
		body.Message = "submission already recorded"
		log.Debug("duplicate submission ignored", logger.String("member", member.ID))
		return ok(body)
	}

	s.observer.SubmissionRecorded(SubmissionAdded)
	body.Message = "submission recorded"
	log.Info("submission recorded", logger.String("member", member.ID), logger.Int("submissions", len(subs)))
	return ok(body)
}

// NormalizeProblemID returns the canonical decimal form of a problem id
// ("01000 " becomes "1000").
func NormalizeProblemID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	n, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil || n == 0 {
		return "", invalidInput(ErrInvalidProblem, "problem id %q is not a positive number", raw)
	}
	return strconv.FormatUint(n, 10), nil
}
