package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// Metrics: коллекторы Prometheus экзаменационного движка
type Metrics struct {
	attemptsStarted   prometheus.Counter
	attemptsRejected  *prometheus.CounterVec
	attemptsGraded    *prometheus.CounterVec
	attemptScore      prometheus.Histogram
	gradingDuration   prometheus.Histogram
	versionGeneration *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New регистрирует коллекторы в reg (nil: prometheus.DefaultRegisterer)
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		attemptsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "exam_attempts_started_total",
			Help: "Total number of started exam attempts",
		}),
		attemptsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempts_rejected_total",
			Help: "Total number of rejected attempt starts",
		}, []string{"reason"}),
		attemptsGraded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempts_graded_total",
			Help: "Total number of graded attempts",
		}, []string{"passed", "out_of_time"}),
		attemptScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_attempt_score",
			Help:    "Distribution of attempt scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10), // 10..100
		}),
		gradingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_grading_duration_seconds",
			Help:    "Time spent grading an attempt",
			Buckets: prometheus.DefBuckets,
		}),
		versionGeneration: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_version_generations_total",
			Help: "Total number of version regenerations",
		}, []string{"status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exam_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// AttemptStarted учитывает начатую попытку
func (m *Metrics) AttemptStarted() {
	m.attemptsStarted.Inc()
}

// AttemptRejected учитывает отказ в старте попытки
func (m *Metrics) AttemptRejected(err error) {
	m.attemptsRejected.WithLabelValues(RejectReason(err)).Inc()
}

// AttemptGraded учитывает оценённую попытку
func (m *Metrics) AttemptGraded(score float64, passed, outOfTime bool, took time.Duration) {
	m.attemptsGraded.WithLabelValues(boolLabel(passed), boolLabel(outOfTime)).Inc()
	m.attemptScore.Observe(score)
	m.gradingDuration.Observe(took.Seconds())
}

// VersionsGenerated учитывает перегенерацию версий; err == nil: успех
func (m *Metrics) VersionsGenerated(err error) {
	status := "ok"
	switch {
	case errors.Is(err, apperrors.ErrInsufficientQuestions):
		status = "insufficient_questions"
	case err != nil:
		status = "error"
	}
	m.versionGeneration.WithLabelValues(status).Inc()
}

// ObserveHTTP учитывает HTTP-запрос
func (m *Metrics) ObserveHTTP(method, route, status string, took time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// RejectReason переводит ошибку старта попытки в метку
func RejectReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, apperrors.ErrInactiveEvaluation):
		return "inactive"
	case errors.Is(err, apperrors.ErrAttemptInProgress):
		return "in_progress"
	case errors.Is(err, apperrors.ErrAttemptsExhausted):
		return "exhausted"
	case errors.Is(err, apperrors.ErrVersionNotFound):
		return "no_version"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
