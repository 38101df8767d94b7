package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// VersionRepo реализует repository.VersionRepository
type VersionRepo struct {
	db *gorm.DB
}

// NewVersionRepo создает новый репозиторий версий
func NewVersionRepo(db *gorm.DB) *VersionRepo {
	return &VersionRepo{db: db}
}

// ListByEvaluation возвращает версии экзамена по номеру
func (r *VersionRepo) ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]entity.EvaluationVersion, error) {
	var versions []entity.EvaluationVersion
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", evaluationID).
		Order("version_number").
		Find(&versions).Error
	return versions, err
}

// GetByID возвращает версию по ID
func (r *VersionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.EvaluationVersion, error) {
	var version entity.EvaluationVersion
	if err := r.db.WithContext(ctx).First(&version, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &version, nil
}

// ReplaceForEvaluation удаляет все версии экзамена и вставляет новые в одной транзакции
func (r *VersionRepo) ReplaceForEvaluation(ctx context.Context, evaluationID uuid.UUID, versions []entity.EvaluationVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("evaluation_id = ?", evaluationID).Delete(&entity.EvaluationVersion{}).Error; err != nil {
			return err
		}
		if len(versions) == 0 {
			return nil
		}
		for i := range versions {
			versions[i].EvaluationID = evaluationID
		}
		return tx.Create(&versions).Error
	})
}
