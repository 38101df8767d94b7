package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/handler/dto"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// EvaluationHandler обрабатывает запросы, связанные с экзаменами
type EvaluationHandler struct {
	authoring EvaluationAuthoring
	attempts  ExamTaking
	reports   Reporter
	log       *logger.Logger
}

// NewEvaluationHandler создает новый обработчик экзаменов
func NewEvaluationHandler(authoring EvaluationAuthoring, attempts ExamTaking, reports Reporter, log *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		authoring: authoring,
		attempts:  attempts,
		reports:   reports,
		log:       log.With("component", "evaluation_handler"),
	}
}

// CreateEvaluation создает экзамен и генерирует его версии
// POST /api/evaluations
func (h *EvaluationHandler) CreateEvaluation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authoring.Create(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewEvaluationResponse(result))
}

// UpdateEvaluation заменяет параметры экзамена
// PUT /api/evaluations/:id
func (h *EvaluationHandler) UpdateEvaluation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	evaluationID := c.MustGet(EvaluationIDKey).(uuid.UUID)

	var req dto.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authoring.Update(c.Request.Context(), actor, evaluationID, req.ToInput())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewEvaluationResponse(result))
}

// RegenerateVersions пересобирает все версии экзамена
// POST /api/evaluations/:id/versions/regenerate
func (h *EvaluationHandler) RegenerateVersions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	evaluationID := c.MustGet(EvaluationIDKey).(uuid.UUID)

	versions, err := h.authoring.RegenerateVersions(c.Request.Context(), actor, evaluationID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": dto.NewVersionListResponse(versions)})
}

// ListVersions возвращает версии экзамена
// GET /api/evaluations/:id/versions
func (h *EvaluationHandler) ListVersions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	evaluationID := c.MustGet(EvaluationIDKey).(uuid.UUID)

	versions, err := h.authoring.ListVersions(c.Request.Context(), actor, evaluationID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": dto.NewVersionListResponse(versions)})
}

// StartAttempt начинает попытку текущего пользователя
// POST /api/evaluations/:id/attempts
func (h *EvaluationHandler) StartAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	evaluationID := c.MustGet(EvaluationIDKey).(uuid.UUID)

	started, err := h.attempts.Start(c.Request.Context(), actor, evaluationID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"attempt":        dto.NewAttemptResponse(started.Attempt),
		"version_number": started.VersionNumber,
		"question_count": started.QuestionCount,
	})
}

// ListAttempts возвращает попытки экзамена с фильтрами student_id, state, from, to
// GET /api/evaluations/:id/attempts
func (h *EvaluationHandler) ListAttempts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	filter, ok := bindAttemptFilter(c)
	if !ok {
		return
	}

	attempts, err := h.attempts.ListAttempts(c.Request.Context(), actor, filter)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": dto.NewAttemptListResponse(attempts)})
}

// GetReport возвращает сводную статистику по экзамену
// GET /api/evaluations/:id/report
func (h *EvaluationHandler) GetReport(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	evaluationID := c.MustGet(EvaluationIDKey).(uuid.UUID)

	report, err := h.reports.Report(c.Request.Context(), actor, evaluationID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportReport выгружает попытки экзамена в Excel или CSV
// GET /api/evaluations/:id/report/export?format=xlsx|csv
func (h *EvaluationHandler) ExportReport(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	filter, ok := bindAttemptFilter(c)
	if !ok {
		return
	}

	evaluation, rows, err := h.reports.AttemptRows(c.Request.Context(), actor, filter)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("evaluation_%s_attempts_%s", evaluation.ID.String()[:8], time.Now().Format("2006-01-02"))

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		writeAttemptsCSV(c, h.log, rows, filename)
	default:
		writeAttemptsXLSX(c, h.log, evaluation, rows, filename)
	}
}

// bindAttemptFilter разбирает фильтры списка попыток; при ошибке отвечает 400
func bindAttemptFilter(c *gin.Context) (entity.AttemptFilter, bool) {
	filter := entity.AttemptFilter{EvaluationID: c.MustGet(EvaluationIDKey).(uuid.UUID)}

	var q dto.AttemptListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return filter, false
	}

	if q.StudentID != "" {
		studentID := uuid.MustParse(q.StudentID) // формат проверен binding:"uuid"
		filter.UserID = &studentID
	}
	if q.State != "" {
		state := entity.AttemptState(q.State)
		filter.State = &state
	}
	for _, p := range []struct {
		raw  string
		dest **time.Time
		name string
	}{
		{q.From, &filter.From, "from"},
		{q.To, &filter.To, "to"},
	} {
		if p.raw == "" {
			continue
		}
		t, err := parseTimeParam(p.raw)
		if err != nil {
			badRequest(c, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", apperrors.ErrValidation, p.name))
			return filter, false
		}
		*p.dest = &t
	}
	return filter, true
}

func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
