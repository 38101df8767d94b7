package repository

import (
	"context"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// AuditSink принимает события аудита
type AuditSink interface {
	Record(ctx context.Context, event *entity.AuditEvent) error
}
