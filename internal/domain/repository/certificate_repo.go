package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// CertificateRepository определяет методы для работы со справками
type CertificateRepository interface {
	// Create сохраняет справку; повторная выдача для пары (пользователь, курс) возвращает apperrors.ErrCertificateExists
	Create(ctx context.Context, certificate *entity.Certificate) error
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*entity.Certificate, error)
	ListUserIDsByCourse(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)
}
