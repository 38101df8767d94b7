package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate: выданная пользователю справка об окончании курса
type Certificate struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificates_user_course" json:"user_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificates_user_course;index" json:"course_id"`
	Folio      string    `gorm:"size:64;not null;uniqueIndex" json:"folio"`
	FinalScore float64   `gorm:"type:numeric(5,2);not null" json:"final_score"`
	IssuedBy   uuid.UUID `gorm:"type:uuid" json:"issued_by"`
	IssuedAt   time.Time `gorm:"not null" json:"issued_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Certificate) TableName() string {
	return "certificates"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
