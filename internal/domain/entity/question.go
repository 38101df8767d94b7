package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionType: тип вопроса банка
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeOpen           QuestionType = "open"
)

// ParseQuestionType разбирает тип вопроса.
// Понимает также старые обозначения банка: opcion_multiple, vf, abierta.
func ParseQuestionType(raw string) (QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(QuestionTypeMultipleChoice), "opcion_multiple":
		return QuestionTypeMultipleChoice, true
	case string(QuestionTypeTrueFalse), "vf":
		return QuestionTypeTrueFalse, true
	case string(QuestionTypeOpen), "abierta":
		return QuestionTypeOpen, true
	default:
		return "", false
	}
}

// Scan реализует sql.Scanner: старые обозначения банка приводятся к каноническим.
// Неизвестный тип сохраняется как есть.
func (t *QuestionType) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*t = ""
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("failed to scan question type: unexpected %T", value)
	}

	if parsed, ok := ParseQuestionType(raw); ok {
		*t = parsed
		return nil
	}
	*t = QuestionType(raw)
	return nil
}

// Value реализует driver.Valuer для QuestionType
func (t QuestionType) Value() (driver.Value, error) {
	return string(t), nil
}

// QuestionOption: вариант ответа для multiple_choice
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionList - пользовательский тип для работы с JSONB
type OptionList []QuestionOption

// Scan реализует интерфейс sql.Scanner для OptionList
func (o *OptionList) Scan(value interface{}) error {
	if value == nil {
		*o = OptionList{}
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
		*o = OptionList{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для OptionList
func (o OptionList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос банка, привязанный к уроку
type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Statement     string         `gorm:"type:text;not null" json:"statement"`
	Type          QuestionType   `gorm:"size:32;not null" json:"type"`
	Options       OptionList     `gorm:"type:jsonb" json:"options"`
	CorrectAnswer datatypes.JSON `gorm:"type:jsonb" json:"-"` // Скрыто от клиента
	Difficulty    int            `gorm:"not null" json:"difficulty"`
	Active        bool           `gorm:"not null;index" json:"active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// HasCorrectAnswer сообщает, задан ли эталонный ответ
func (q *Question) HasCorrectAnswer() bool {
	raw := strings.TrimSpace(string(q.CorrectAnswer))
	return raw != "" && raw != "null"
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}
