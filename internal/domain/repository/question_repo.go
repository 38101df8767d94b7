package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// QuestionRepository: доступ к банку вопросов (только чтение)
type QuestionRepository interface {
	// FetchActiveByLesson возвращает активные вопросы урока
	FetchActiveByLesson(ctx context.Context, lessonID uuid.UUID) ([]entity.Question, error)
	// FetchByIDs возвращает вопросы по идентификаторам; порядок результата не гарантирован
	FetchByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Question, error)
}
