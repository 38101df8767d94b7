package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/exam-engine-api/internal/middleware"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/internal/service"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// Порядок важен: конкретные ошибки проверяются раньше общих, которые они оборачивают
var errorResponses = []struct {
	err       error
	status    int
	errorType string
}{
	{apperrors.ErrAttemptInProgress, http.StatusConflict, "attempt_in_progress"},
	{apperrors.ErrAlreadyGraded, http.StatusConflict, "already_graded"},
	{apperrors.ErrAttemptNotInProgress, http.StatusConflict, "attempt_not_in_progress"},
	{apperrors.ErrCertificateExists, http.StatusConflict, "certificate_exists"},
	{apperrors.ErrQuestionNotInVersion, http.StatusUnprocessableEntity, "question_not_in_version"},
	{apperrors.ErrAttemptsExhausted, http.StatusConflict, "attempts_exhausted"},
	{apperrors.ErrInactiveEvaluation, http.StatusConflict, "inactive_evaluation"},
	{apperrors.ErrVersionNotFound, http.StatusConflict, "version_not_found"},
	{apperrors.ErrTimeLimitExceeded, http.StatusConflict, "time_limit_exceeded"},
	{apperrors.ErrInsufficientQuestions, http.StatusUnprocessableEntity, "insufficient_questions"},
	{apperrors.ErrNotEligible, http.StatusUnprocessableEntity, "not_eligible"},
	{apperrors.ErrNotEnrolled, http.StatusForbidden, "not_enrolled"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperrors.ErrValidation, http.StatusUnprocessableEntity, "validation"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict"},
}

// handleError отправляет HTTP ответ, соответствующий ошибке сервиса
func handleError(c *gin.Context, log *logger.Logger, err error) {
	for _, r := range errorResponses {
		if errors.Is(err, r.err) {
			c.JSON(r.status, gin.H{"error": err.Error(), "error_type": r.errorType})
			return
		}
	}

	log.Error("Internal server error",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
		"persistence", apperrors.IsPersistence(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal"})
}

// badRequest отвечает 400 на ошибку разбора запроса
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data: " + err.Error(), "error_type": "validation"})
}

// requireActor достаёт актора запроса; без него отвечает 401
func requireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return service.Actor{}, false
	}
	return actor, true
}
