package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// UserRepository: чтение профилей пользователей
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error)
}
