package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/handler/dto"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// AttemptHandler обрабатывает запросы прохождения экзамена
type AttemptHandler struct {
	attempts ExamTaking
	grader   Grader
	log      *logger.Logger
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attempts ExamTaking, grader Grader, log *logger.Logger) *AttemptHandler {
	return &AttemptHandler{
		attempts: attempts,
		grader:   grader,
		log:      log.With("component", "attempt_handler"),
	}
}

// MyEvaluations возвращает экзамены, доступные текущему студенту
// GET /api/me/evaluations
func (h *AttemptHandler) MyEvaluations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	available, err := h.attempts.AvailableForStudent(c.Request.Context(), actor)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluations": available})
}

// GetAttempt возвращает попытку с ответами
// GET /api/attempts/:id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	attemptID := c.MustGet(AttemptIDKey).(uuid.UUID)

	detail, err := h.attempts.Detail(c.Request.Context(), actor, attemptID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"attempt":       dto.NewAttemptResponse(detail.Attempt),
		"title":         detail.Title,
		"passing_score": detail.PassingScore,
		"answers":       detail.Answers,
	})
}

// GetQuestions возвращает вопросы назначенной версии без правильных ответов
// GET /api/attempts/:id/questions
func (h *AttemptHandler) GetQuestions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	attemptID := c.MustGet(AttemptIDKey).(uuid.UUID)

	questions, err := h.attempts.Questions(c.Request.Context(), actor, attemptID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// SaveAnswer сохраняет (или заменяет) ответ на вопрос
// PUT /api/attempts/:id/answers/:questionId
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	attemptID := c.MustGet(AttemptIDKey).(uuid.UUID)
	questionID := c.MustGet(QuestionIDKey).(uuid.UUID)

	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	answer, err := h.attempts.RegisterAnswer(c.Request.Context(), actor, attemptID, questionID, req.Value)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// FinishAttempt завершает и оценивает попытку
// POST /api/attempts/:id/finish
func (h *AttemptHandler) FinishAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	attemptID := c.MustGet(AttemptIDKey).(uuid.UUID)

	result, err := h.grader.Grade(c.Request.Context(), actor, attemptID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAnswers возвращает ответы попытки с отметками правильности
// GET /api/attempts/:id/answers
func (h *AttemptHandler) GetAnswers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	attemptID := c.MustGet(AttemptIDKey).(uuid.UUID)

	answers, err := h.attempts.Answers(c.Request.Context(), actor, attemptID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}
