package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// VersionRepository определяет методы для работы с версиями экзаменов
type VersionRepository interface {
	// ListByEvaluation возвращает версии экзамена по возрастанию номера
	ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]entity.EvaluationVersion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.EvaluationVersion, error)
	// ReplaceForEvaluation удаляет все версии экзамена и вставляет новые одной транзакцией
	ReplaceForEvaluation(ctx context.Context, evaluationID uuid.UUID, versions []entity.EvaluationVersion) error
}
