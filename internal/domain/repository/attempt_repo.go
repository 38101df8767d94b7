package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками
type AttemptRepository interface {
	// Create сохраняет новую попытку.
	// Возвращает apperrors.ErrAttemptInProgress, если у пары (пользователь, экзамен) уже есть незавершённая попытка.
	Create(ctx context.Context, attempt *entity.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Attempt, error)
	// ListByUserAndEvaluation возвращает все попытки пользователя по экзамену в порядке номера
	ListByUserAndEvaluation(ctx context.Context, userID, evaluationID uuid.UUID) ([]entity.Attempt, error)
	// ListByUserAndEvaluations возвращает попытки пользователя по набору экзаменов
	ListByUserAndEvaluations(ctx context.Context, userID uuid.UUID, evaluationIDs []uuid.UUID) ([]entity.Attempt, error)
	// ListTerminatedByEvaluation возвращает завершённые попытки экзамена
	ListTerminatedByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]entity.Attempt, error)
	// List возвращает попытки экзамена по фильтру, новые первыми
	List(ctx context.Context, filter entity.AttemptFilter) ([]entity.Attempt, error)
	// Finalize в одной транзакции сохраняет оценённые ответы и переводит попытку в terminated.
	// Возвращает apperrors.ErrAlreadyGraded, если попытка уже не в состоянии in_progress.
	Finalize(ctx context.Context, attemptID uuid.UUID, answers []entity.Answer, outcome entity.AttemptOutcome) error
}

// AnswerRepository определяет методы для работы с ответами попытки
type AnswerRepository interface {
	// Upsert создаёт или перезаписывает ответ по ключу (попытка, вопрос)
	Upsert(ctx context.Context, answer *entity.Answer) error
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]entity.Answer, error)
}
