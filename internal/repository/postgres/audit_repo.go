package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// AuditRepo пишет события аудита в таблицу audit_log
type AuditRepo struct {
	db *gorm.DB
}

// NewAuditRepo создает новый репозиторий аудита
func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record сохраняет событие аудита
func (r *AuditRepo) Record(ctx context.Context, event *entity.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
