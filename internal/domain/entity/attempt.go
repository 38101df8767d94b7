package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttemptState: состояние попытки
type AttemptState string

const (
	AttemptStateInProgress AttemptState = "in_progress"
	AttemptStateTerminated AttemptState = "terminated"
)

// Attempt: одна попытка студента пройти назначенную версию экзамена.
// Частичный уникальный индекс гарантирует не более одной незавершённой попытки на пару (пользователь, экзамен).
type Attempt struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_attempts_single_in_progress,where:state = 'in_progress'" json:"user_id"`
	EvaluationID  uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_attempts_single_in_progress" json:"evaluation_id"`
	VersionID     uuid.UUID    `gorm:"type:uuid;not null" json:"version_id"`
	AttemptNumber int          `gorm:"not null" json:"attempt_number"`
	State         AttemptState `gorm:"size:20;not null;index" json:"state"`
	StartedAt     time.Time    `gorm:"not null" json:"started_at"`
	Deadline      *time.Time   `json:"deadline,omitempty"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	Score         *float64     `gorm:"type:numeric(5,2)" json:"score,omitempty"`
	Passed        *bool        `json:"passed,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "evaluation_attempts"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsInProgress сообщает, что попытка ещё не завершена
func (a *Attempt) IsInProgress() bool {
	return a.State == AttemptStateInProgress
}

// IsTerminated сообщает, что попытка оценена
func (a *Attempt) IsTerminated() bool {
	return a.State == AttemptStateTerminated
}

// IsOverdue сообщает, истёк ли лимит времени к моменту at
func (a *Attempt) IsOverdue(at time.Time) bool {
	return a.Deadline != nil && at.After(*a.Deadline)
}

// Duration возвращает длительность завершённой попытки
func (a *Attempt) Duration() (time.Duration, bool) {
	if a.FinishedAt == nil {
		return 0, false
	}
	return a.FinishedAt.Sub(a.StartedAt), true
}

// ScoreValue возвращает оценку или 0, если попытка не оценена
func (a *Attempt) ScoreValue() float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// AttemptFilter: фильтр списка попыток экзамена
type AttemptFilter struct {
	EvaluationID uuid.UUID
	UserID       *uuid.UUID
	State        *AttemptState
	From         *time.Time
	To           *time.Time
}

// AttemptOutcome: итог оценки, записываемый одним терминальным обновлением
type AttemptOutcome struct {
	Score      float64
	Passed     bool
	FinishedAt time.Time
}
