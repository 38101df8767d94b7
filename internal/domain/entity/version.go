package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUIDList: упорядоченный список идентификаторов, хранится в JSONB
type UUIDList []uuid.UUID

// Scan реализует интерфейс sql.Scanner для UUIDList
func (l *UUIDList) Scan(value interface{}) error {
	if value == nil {
		*l = UUIDList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*l = UUIDList{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Value реализует интерфейс driver.Valuer для UUIDList
func (l UUIDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// EvaluationVersion: конкретный набор вопросов экзамена
type EvaluationVersion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EvaluationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_versions_evaluation_number" json:"evaluation_id"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_versions_evaluation_number" json:"version_number"`
	QuestionIDs   UUIDList  `gorm:"type:jsonb;not null" json:"question_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (EvaluationVersion) TableName() string {
	return "evaluation_versions"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (v *EvaluationVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Contains проверяет, входит ли вопрос в версию
func (v *EvaluationVersion) Contains(questionID uuid.UUID) bool {
	for _, id := range v.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// QuestionCount возвращает количество вопросов версии
func (v *EvaluationVersion) QuestionCount() int {
	return len(v.QuestionIDs)
}
