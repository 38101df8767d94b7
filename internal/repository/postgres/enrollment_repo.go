package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// EnrollmentRepo реализует repository.EnrollmentRepository
type EnrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo создает новый репозиторий зачислений
func NewEnrollmentRepo(db *gorm.DB) *EnrollmentRepo {
	return &EnrollmentRepo{db: db}
}

// IsEnrolled проверяет зачисление пользователя на курс
func (r *EnrollmentRepo) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// ListCourseIDs возвращает курсы пользователя
func (r *EnrollmentRepo) ListCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.CourseEnrollment{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("course_id", &ids).Error
	return ids, err
}

// ListUserIDs возвращает пользователей курса
func (r *EnrollmentRepo) ListUserIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.CourseEnrollment{}).
		Where("course_id = ?", courseID).
		Distinct().
		Pluck("user_id", &ids).Error
	return ids, err
}
