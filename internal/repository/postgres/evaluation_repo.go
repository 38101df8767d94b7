package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// EvaluationRepo реализует repository.EvaluationRepository
type EvaluationRepo struct {
	db *gorm.DB
}

// NewEvaluationRepo создает новый репозиторий экзаменов
func NewEvaluationRepo(db *gorm.DB) *EvaluationRepo {
	return &EvaluationRepo{db: db}
}

// Create создает новый экзамен
func (r *EvaluationRepo) Create(ctx context.Context, evaluation *entity.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

// Update сохраняет все поля экзамена
func (r *EvaluationRepo) Update(ctx context.Context, evaluation *entity.Evaluation) error {
	return r.db.WithContext(ctx).Save(evaluation).Error
}

// GetByID возвращает экзамен по ID
func (r *EvaluationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error) {
	var evaluation entity.Evaluation
	if err := r.db.WithContext(ctx).First(&evaluation, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &evaluation, nil
}

// GetCourseID возвращает курс экзамена через урок и модуль
func (r *EvaluationRepo) GetCourseID(ctx context.Context, evaluationID uuid.UUID) (uuid.UUID, error) {
	var courseIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("evaluations AS e").
		Joins("JOIN lessons AS l ON l.id = e.lesson_id").
		Joins("JOIN course_modules AS m ON m.id = l.module_id").
		Where("e.id = ?", evaluationID).
		Limit(1).
		Pluck("m.course_id", &courseIDs).Error
	if err != nil {
		return uuid.Nil, err
	}
	if len(courseIDs) == 0 {
		return uuid.Nil, apperrors.ErrNotFound
	}
	return courseIDs[0], nil
}

// ListActiveByCourse возвращает активные экзамены уроков курса
func (r *EvaluationRepo) ListActiveByCourse(ctx context.Context, courseID uuid.UUID) ([]entity.Evaluation, error) {
	return r.ListActiveByCourses(ctx, []uuid.UUID{courseID})
}

// ListActiveByCourses возвращает активные экзамены уроков нескольких курсов
func (r *EvaluationRepo) ListActiveByCourses(ctx context.Context, courseIDs []uuid.UUID) ([]entity.Evaluation, error) {
	if len(courseIDs) == 0 {
		return []entity.Evaluation{}, nil
	}
	var evaluations []entity.Evaluation
	err := r.db.WithContext(ctx).
		Select("evaluations.*").
		Joins("JOIN lessons ON lessons.id = evaluations.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id IN ? AND evaluations.active = ?", courseIDs, true).
		Order("evaluations.created_at, evaluations.id").
		Find(&evaluations).Error
	return evaluations, err
}
