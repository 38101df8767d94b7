package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// CertificateRepo реализует repository.CertificateRepository
type CertificateRepo struct {
	db *gorm.DB
}

// NewCertificateRepo создает новый репозиторий справок
func NewCertificateRepo(db *gorm.DB) *CertificateRepo {
	return &CertificateRepo{db: db}
}

// Create сохраняет справку
func (r *CertificateRepo) Create(ctx context.Context, certificate *entity.Certificate) error {
	if err := r.db.WithContext(ctx).Create(certificate).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s, course %s", apperrors.ErrCertificateExists, certificate.UserID, certificate.CourseID)
		}
		return err
	}
	return nil
}

// GetByUserAndCourse возвращает справку пользователя по курсу
func (r *CertificateRepo) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*entity.Certificate, error) {
	var certificate entity.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&certificate).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &certificate, nil
}

// ListUserIDsByCourse возвращает пользователей, уже получивших справку по курсу
func (r *CertificateRepo) ListUserIDsByCourse(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.Certificate{}).
		Where("course_id = ?", courseID).
		Pluck("user_id", &ids).Error
	return ids, err
}
