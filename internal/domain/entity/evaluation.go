package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPassingScore: проходной балл, если он не указан при создании экзамена
const DefaultPassingScore = 60.0

// Evaluation: определение экзамена, привязанного к уроку
type Evaluation struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID         uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	QuestionsPerExam int       `gorm:"not null" json:"questions_per_exam"`
	VersionCount     int       `gorm:"not null" json:"version_count"`
	MaxAttempts      int       `gorm:"not null" json:"max_attempts"` // 0: без ограничений
	TimeLimitMinutes *int      `json:"time_limit_minutes,omitempty"`
	PassingScore     float64   `gorm:"type:numeric(5,2);not null" json:"passing_score"`
	Active           bool      `gorm:"not null;index" json:"active"`
	CreatedBy        uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Evaluation) TableName() string {
	return "evaluations"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// AttemptsExhausted сообщает, исчерпан ли лимит попыток при заданном числе завершённых попыток
func (e *Evaluation) AttemptsExhausted(terminated int) bool {
	return e.MaxAttempts > 0 && terminated >= e.MaxAttempts
}

// Deadline возвращает крайний срок попытки, начатой в startedAt.
// nil означает отсутствие ограничения по времени.
func (e *Evaluation) Deadline(startedAt time.Time) *time.Time {
	if e.TimeLimitMinutes == nil || *e.TimeLimitMinutes <= 0 {
		return nil
	}
	deadline := startedAt.Add(time.Duration(*e.TimeLimitMinutes) * time.Minute)
	return &deadline
}

// IsPassing проверяет, достигает ли оценка проходного балла
func (e *Evaluation) IsPassing(score float64) bool {
	return score >= e.PassingScore
}

// NeedsRegeneration сообщает, требует ли изменение конфигурации перегенерации версий
func (e *Evaluation) NeedsRegeneration(prev *Evaluation) bool {
	return prev.LessonID != e.LessonID ||
		prev.QuestionsPerExam != e.QuestionsPerExam ||
		prev.VersionCount != e.VersionCount
}
