package service

import "time"

// ExamMetrics: метрики, которые пишут сервисы (реализация: internal/metrics.Metrics)
type ExamMetrics interface {
	AttemptStarted()
	AttemptRejected(err error)
	AttemptGraded(score float64, passed, outOfTime bool, took time.Duration)
	VersionsGenerated(err error)
}

type noopMetrics struct{}

func (noopMetrics) AttemptStarted()                                 {}
func (noopMetrics) AttemptRejected(error)                           {}
func (noopMetrics) AttemptGraded(float64, bool, bool, time.Duration) {}
func (noopMetrics) VersionsGenerated(error)                         {}

func metricsOrNoop(m ExamMetrics) ExamMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
