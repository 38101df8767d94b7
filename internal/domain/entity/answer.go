package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Answer: ответ студента на вопрос в рамках попытки.
// Одна строка на пару (попытка, вопрос); повторная отправка перезаписывает её.
type Answer struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_answers_attempt_question" json:"attempt_id"`
	QuestionID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_answers_attempt_question" json:"question_id"`
	SubmittedValue datatypes.JSON `gorm:"type:jsonb" json:"submitted_value"`
	Correct        *bool          `json:"correct,omitempty"` // nil до оценки попытки
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "evaluation_answers"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
