package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dawnstudy/attendance/internal/attendance"
)

// DayCheckMetrics records the outcomes of the attendance day jobs. It
// satisfies daycheck.Observer.
type DayCheckMetrics struct {
	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	statusesTotal   *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	memberFailures  *prometheus.CounterVec
	lastSuccessTime *prometheus.GaugeVec
}

// NewDayCheckMetrics creates and registers the day job metrics.
func NewDayCheckMetrics(registry *prometheus.Registry) (*DayCheckMetrics, error) {
	m := &DayCheckMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DayCheckMetrics) initMetrics() {
	m.jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_jobs_total",
			Help: "Total number of day job invocations",
		},
		[]string{"job", "status_code"}, // job: midday, dayend, submission, checkin, dayoff, weekly
	)

	m.jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attendance_job_duration_seconds",
			Help:    "Time taken by day job invocations",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~40s
		},
		[]string{"job"},
	)

	m.statusesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_status_assignments_total",
			Help: "Total number of status changes written by the day jobs",
		},
		[]string{"job", "status"},
	)

	m.submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_submissions_total",
			Help: "Total number of submission events by outcome",
		},
		[]string{"outcome"}, // outcome: added, duplicate, rejected, failed
	)

	m.memberFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_member_failures_total",
			Help: "Total number of per-member read or write failures",
		},
		[]string{"job", "operation"},
	)

	m.lastSuccessTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "attendance_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful invocation per job",
		},
		[]string{"job"},
	)
}

func (m *DayCheckMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.jobsTotal,
		m.jobDuration,
		m.statusesTotal,
		m.submissions,
		m.memberFailures,
		m.lastSuccessTime,
	}
}

// Describe implements the Collector interface
func (m *DayCheckMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DayCheckMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// JobCompleted records one finished invocation.
func (m *DayCheckMetrics) JobCompleted(job string, statusCode int, elapsed time.Duration) {
	m.jobsTotal.WithLabelValues(job, strconv.Itoa(statusCode)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	if statusCode >= 200 && statusCode < 300 {
		m.lastSuccessTime.WithLabelValues(job).SetToCurrentTime()
	}
}

// StatusAssigned records a persisted status change.
func (m *DayCheckMetrics) StatusAssigned(job string, status attendance.Status) {
	m.statusesTotal.WithLabelValues(job, string(status)).Inc()
}

// SubmissionRecorded records the outcome of a submission event.
func (m *DayCheckMetrics) SubmissionRecorded(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// MemberFailed records a per-member failure inside a job.
func (m *DayCheckMetrics) MemberFailed(job, operation string) {
	m.memberFailures.WithLabelValues(job, operation).Inc()
}
