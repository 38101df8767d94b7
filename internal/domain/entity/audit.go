package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Действия, попадающие в журнал аудита
const (
	AuditActionStartExam        = "iniciar_examen"
	AuditActionFinishExam       = "finalizar_examen"
	AuditActionGenerateVersions = "generar_versiones"
	AuditActionIssueCertificate = "emitir_constancia"
	AuditActionCreateEvaluation = "crear_evaluacion"
	AuditActionUpdateEvaluation = "actualizar_evaluacion"
)

// AuditEvent: запись журнала аудита
type AuditEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action      string         `gorm:"size:64;not null;index" json:"action"`
	Entity      string         `gorm:"size:64" json:"entity"`
	EntityID    *uuid.UUID     `gorm:"type:uuid" json:"entity_id,omitempty"`
	Description string         `gorm:"type:text" json:"description"`
	IP          string         `gorm:"size:64" json:"ip,omitempty"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AuditEvent) TableName() string {
	return "audit_log"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
