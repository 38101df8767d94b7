package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/service"
)

// EvaluationRequest: тело запроса на создание или замену экзамена
type EvaluationRequest struct {
	LessonID         uuid.UUID `json:"lesson_id" binding:"required"`
	Title            string    `json:"title" binding:"required,min=3,max=255"`
	Description      string    `json:"description" binding:"omitempty,max=2000"`
	QuestionsPerExam int       `json:"questions_per_exam" binding:"required,min=1"`
	VersionCount     int       `json:"version_count" binding:"required,min=1"`
	MaxAttempts      int       `json:"max_attempts" binding:"min=0"`
	TimeLimitMinutes *int      `json:"time_limit_minutes" binding:"omitempty,min=0"`
	PassingScore     *float64  `json:"passing_score" binding:"omitempty,min=0,max=100"`
	Active           *bool     `json:"active"`
}

// ToInput преобразует запрос во входные данные сервиса
func (r *EvaluationRequest) ToInput() service.EvaluationInput {
	return service.EvaluationInput{
		LessonID:         r.LessonID,
		Title:            r.Title,
		Description:      r.Description,
		QuestionsPerExam: r.QuestionsPerExam,
		VersionCount:     r.VersionCount,
		MaxAttempts:      r.MaxAttempts,
		TimeLimitMinutes: r.TimeLimitMinutes,
		PassingScore:     r.PassingScore,
		Active:           r.Active,
	}
}

// AnswerRequest: ответ на вопрос; value хранится как есть (строка, массив, булево)
type AnswerRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// IssueCertificateRequest: запрос на выдачу справки
type IssueCertificateRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// AttemptListQuery: фильтры списка попыток
type AttemptListQuery struct {
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	State     string `form:"state" binding:"omitempty,oneof=in_progress terminated"`
	From      string `form:"from" binding:"omitempty"`
	To        string `form:"to" binding:"omitempty"`
}

// VersionResponse: версия экзамена в ответе
type VersionResponse struct {
	ID            uuid.UUID   `json:"id"`
	VersionNumber int         `json:"version_number"`
	QuestionIDs   []uuid.UUID `json:"question_ids"`
	CreatedAt     time.Time   `json:"created_at"`
}

// EvaluationResponse: экзамен вместе с версиями
type EvaluationResponse struct {
	Evaluation  *entity.Evaluation `json:"evaluation"`
	Versions    []VersionResponse  `json:"versions"`
	Regenerated bool               `json:"regenerated"`
}

// AttemptResponse: попытка в ответе
type AttemptResponse struct {
	ID            uuid.UUID           `json:"id"`
	EvaluationID  uuid.UUID           `json:"evaluation_id"`
	UserID        uuid.UUID           `json:"user_id"`
	VersionID     uuid.UUID           `json:"version_id"`
	AttemptNumber int                 `json:"attempt_number"`
	State         entity.AttemptState `json:"state"`
	StartedAt     time.Time           `json:"started_at"`
	Deadline      *time.Time          `json:"deadline,omitempty"`
	FinishedAt    *time.Time          `json:"finished_at,omitempty"`
	Score         *float64            `json:"score,omitempty"`
	Passed        *bool               `json:"passed,omitempty"`
}

// NewVersionResponse создает DTO для версии
func NewVersionResponse(v *entity.EvaluationVersion) VersionResponse {
	return VersionResponse{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		QuestionIDs:   v.QuestionIDs,
		CreatedAt:     v.CreatedAt,
	}
}

// NewVersionListResponse создает DTO для списка версий
func NewVersionListResponse(versions []entity.EvaluationVersion) []VersionResponse {
	out := make([]VersionResponse, 0, len(versions))
	for i := range versions {
		out = append(out, NewVersionResponse(&versions[i]))
	}
	return out
}

// NewEvaluationResponse создает DTO для результата авторинга
func NewEvaluationResponse(a *service.AuthoredEvaluation) *EvaluationResponse {
	return &EvaluationResponse{
		Evaluation:  a.Evaluation,
		Versions:    NewVersionListResponse(a.Versions),
		Regenerated: a.Regenerated,
	}
}

// NewAttemptResponse создает DTO для попытки
func NewAttemptResponse(a *entity.Attempt) AttemptResponse {
	return AttemptResponse{
		ID:            a.ID,
		EvaluationID:  a.EvaluationID,
		UserID:        a.UserID,
		VersionID:     a.VersionID,
		AttemptNumber: a.AttemptNumber,
		State:         a.State,
		StartedAt:     a.StartedAt,
		Deadline:      a.Deadline,
		FinishedAt:    a.FinishedAt,
		Score:         a.Score,
		Passed:        a.Passed,
	}
}

// NewAttemptListResponse создает DTO для списка попыток
func NewAttemptListResponse(attempts []entity.Attempt) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for i := range attempts {
		out = append(out, NewAttemptResponse(&attempts[i]))
	}
	return out
}
