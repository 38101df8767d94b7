package examengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// SubmittedAnswer: разобранный ответ студента; конкретный тип определяется типом вопроса
type SubmittedAnswer interface {
	QuestionType() entity.QuestionType
}

// MultipleChoiceAnswer: выбранный вариант (или набор вариантов)
type MultipleChoiceAnswer struct {
	Choice interface{}
}

// QuestionType реализует SubmittedAnswer
func (MultipleChoiceAnswer) QuestionType() entity.QuestionType {
	return entity.QuestionTypeMultipleChoice
}

// TrueFalseAnswer: токен "verdadero"/"falso" после нормализации
type TrueFalseAnswer struct {
	Token string
}

// QuestionType реализует SubmittedAnswer
func (TrueFalseAnswer) QuestionType() entity.QuestionType {
	return entity.QuestionTypeTrueFalse
}

// OpenAnswer: свободный ответ
type OpenAnswer struct {
	Text interface{}
}

// QuestionType реализует SubmittedAnswer
func (OpenAnswer) QuestionType() entity.QuestionType {
	return entity.QuestionTypeOpen
}

var errEmptyAnswer = errors.New("empty answer")

// DecodeAnswer разбирает ответ по типу вопроса
func DecodeAnswer(questionType entity.QuestionType, raw []byte) (SubmittedAnswer, error) {
	if isNull(raw) {
		return nil, errEmptyAnswer
	}
	value, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: answer is not valid JSON: %v", apperrors.ErrValidation, err)
	}

	switch questionType {
	case entity.QuestionTypeMultipleChoice:
		return MultipleChoiceAnswer{Choice: normalize(value)}, nil
	case entity.QuestionTypeTrueFalse:
		token, ok := trueFalseToken(value)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported true/false answer", apperrors.ErrValidation)
		}
		return TrueFalseAnswer{Token: token}, nil
	case entity.QuestionTypeOpen:
		return OpenAnswer{Text: normalize(value)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, questionType)
	}
}

// ValidateAnswer проверяет, что ответ разбирается для вопроса данного типа.
// null допустим и при оценке считается неверным ответом.
func ValidateAnswer(questionType entity.QuestionType, raw []byte) error {
	_, err := DecodeAnswer(questionType, raw)
	if errors.Is(err, errEmptyAnswer) {
		return nil
	}
	return err
}

// IsCorrect проверяет ответ на вопрос. Чистая функция.
// Отсутствующий эталонный ответ всегда даёт false.
func IsCorrect(question *entity.Question, submitted []byte) bool {
	if question == nil || !question.HasCorrectAnswer() {
		return false
	}
	answer, err := DecodeAnswer(question.Type, submitted)
	if err != nil {
		return false
	}
	expected, err := decodeJSON(question.CorrectAnswer)
	if err != nil {
		return false
	}

	switch a := answer.(type) {
	case MultipleChoiceAnswer:
		return matchesAny(a.Choice, expected)
	case OpenAnswer:
		return matchesAny(a.Text, expected)
	case TrueFalseAnswer:
		token, ok := trueFalseToken(firstOf(expected))
		return ok && token == a.Token
	default:
		return false
	}
}

// matchesAny сравнивает ответ с набором допустимых значений.
// Эталон-массив означает набор допустимых ответов; совпадение со всем массивом тоже засчитывается.
func matchesAny(submitted, expected interface{}) bool {
	got := canonical(submitted)
	if got == "" || got == `""` {
		return false
	}
	if got == canonical(expected) {
		return true
	}
	if set, ok := expected.([]interface{}); ok {
		for _, candidate := range set {
			if got == canonical(candidate) {
				return true
			}
		}
	}
	return false
}

// firstOf возвращает единственный элемент массива из одного значения
func firstOf(v interface{}) interface{} {
	if list, ok := v.([]interface{}); ok && len(list) == 1 {
		return list[0]
	}
	return v
}

// trueFalseToken приводит значение к "verdadero"/"falso" без учёта регистра.
// JSON-булевы и true/false считаются эквивалентами.
func trueFalseToken(v interface{}) (string, bool) {
	switch t := firstOf(v).(type) {
	case bool:
		if t {
			return "verdadero", true
		}
		return "falso", true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "verdadero", "true", "v":
			return "verdadero", true
		case "falso", "false", "f":
			return "falso", true
		}
	}
	return "", false
}
