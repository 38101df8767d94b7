package handler

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/service"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
)

// Интерфейсы сервисов, которые нужны обработчикам.
// Реализации: service.EvaluationService, AttemptService, GradingService, ReportService, CertificateService.

// EvaluationAuthoring: создание и изменение экзаменов
type EvaluationAuthoring interface {
	Create(ctx context.Context, actor service.Actor, in service.EvaluationInput) (*service.AuthoredEvaluation, error)
	Update(ctx context.Context, actor service.Actor, id uuid.UUID, in service.EvaluationInput) (*service.AuthoredEvaluation, error)
	RegenerateVersions(ctx context.Context, actor service.Actor, id uuid.UUID) ([]entity.EvaluationVersion, error)
	ListVersions(ctx context.Context, actor service.Actor, id uuid.UUID) ([]entity.EvaluationVersion, error)
}

// ExamTaking: жизненный цикл попытки со стороны студента и преподавателя
type ExamTaking interface {
	Start(ctx context.Context, actor service.Actor, evaluationID uuid.UUID) (*service.StartedAttempt, error)
	AvailableForStudent(ctx context.Context, actor service.Actor) ([]service.AvailableEvaluation, error)
	Questions(ctx context.Context, actor service.Actor, attemptID uuid.UUID) ([]service.AttemptQuestion, error)
	RegisterAnswer(ctx context.Context, actor service.Actor, attemptID, questionID uuid.UUID, raw json.RawMessage) (*entity.Answer, error)
	Detail(ctx context.Context, actor service.Actor, attemptID uuid.UUID) (*service.AttemptDetail, error)
	ListAttempts(ctx context.Context, actor service.Actor, filter entity.AttemptFilter) ([]entity.Attempt, error)
	Answers(ctx context.Context, actor service.Actor, attemptID uuid.UUID) ([]entity.Answer, error)
}

// Grader: завершение и оценка попытки
type Grader interface {
	Grade(ctx context.Context, actor service.Actor, attemptID uuid.UUID) (*service.GradeResult, error)
}

// Reporter: отчёты по экзамену
type Reporter interface {
	Report(ctx context.Context, actor service.Actor, evaluationID uuid.UUID) (*service.EvaluationReport, error)
	AttemptRows(ctx context.Context, actor service.Actor, filter entity.AttemptFilter) (*entity.Evaluation, []service.AttemptRow, error)
}

// CertificateIssuer: право на справку и её выдача
type CertificateIssuer interface {
	Eligibility(ctx context.Context, actor service.Actor, courseID, userID uuid.UUID) (*examengine.Eligibility, error)
	Issue(ctx context.Context, actor service.Actor, courseID, userID uuid.UUID) (*entity.Certificate, error)
	ListPending(ctx context.Context, actor service.Actor, courseID uuid.UUID) ([]service.PendingCertificate, error)
}
