package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

func TestMetrics_Counters(t *testing.T) {
	// Arrange
	m := New(prometheus.NewRegistry())

	// Act
	m.AttemptStarted()
	m.AttemptStarted()
	m.AttemptRejected(fmt.Errorf("start: %w", apperrors.ErrAttemptsExhausted))
	m.AttemptGraded(66.67, true, false, 20*time.Millisecond)
	m.VersionsGenerated(nil)
	m.VersionsGenerated(apperrors.ErrInsufficientQuestions)

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attemptsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attemptsRejected.WithLabelValues("exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attemptsGraded.WithLabelValues("true", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.versionGeneration.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.versionGeneration.WithLabelValues("insufficient_questions")))
}

func TestRejectReason(t *testing.T) {
	tests := map[error]string{
		apperrors.ErrNotEnrolled:        "not_enrolled",
		apperrors.ErrInactiveEvaluation: "inactive",
		apperrors.ErrAttemptInProgress:  "in_progress",
		apperrors.ErrAttemptsExhausted:  "exhausted",
		apperrors.ErrVersionNotFound:    "no_version",
		apperrors.ErrNotFound:           "not_found",
		fmt.Errorf("boom"):              "error",
	}

	for err, want := range tests {
		assert.Equal(t, want, RejectReason(err), err.Error())
	}
}
