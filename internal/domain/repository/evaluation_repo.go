package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// EvaluationRepository определяет методы для работы с экзаменами
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *entity.Evaluation) error
	Update(ctx context.Context, evaluation *entity.Evaluation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error)
	// GetCourseID возвращает курс, которому принадлежит урок экзамена
	GetCourseID(ctx context.Context, evaluationID uuid.UUID) (uuid.UUID, error)
	// ListActiveByCourse возвращает активные экзамены уроков курса
	ListActiveByCourse(ctx context.Context, courseID uuid.UUID) ([]entity.Evaluation, error)
	// ListActiveByCourses возвращает активные экзамены нескольких курсов
	ListActiveByCourses(ctx context.Context, courseIDs []uuid.UUID) ([]entity.Evaluation, error)
}
