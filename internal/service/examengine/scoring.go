package examengine

import (
	"math"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// Grading: результат проверки ответов попытки
type Grading struct {
	Correct int
	Total   int
	Score   float64
	// Answers: ответы попытки с выставленным флагом Correct
	Answers []entity.Answer
}

// Round2 округляет до двух знаков после запятой
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Score вычисляет процент правильных ответов.
// Знаменатель: число вопросов версии; пустая версия даёт 0.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(correct) / float64(total) * 100)
}

// GradeAnswers проверяет ответы по текущему состоянию вопросов.
// Вопросы версии без ответа считаются неверными; ответы вне версии не засчитываются.
func GradeAnswers(version *entity.EvaluationVersion, questions []entity.Question, answers []entity.Answer) Grading {
	byID := make(map[uuid.UUID]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	inVersion := make(map[uuid.UUID]struct{}, len(version.QuestionIDs))
	for _, id := range version.QuestionIDs {
		inVersion[id] = struct{}{}
	}

	graded := make([]entity.Answer, 0, len(answers))
	correctByQuestion := make(map[uuid.UUID]bool, len(answers))
	for _, answer := range answers {
		correct := false
		if _, ok := inVersion[answer.QuestionID]; ok {
			correct = IsCorrect(byID[answer.QuestionID], answer.SubmittedValue)
		}
		answer.Correct = &correct
		graded = append(graded, answer)
		if correct {
			correctByQuestion[answer.QuestionID] = true
		}
	}

	total := version.QuestionCount()
	return Grading{
		Correct: len(correctByQuestion),
		Total:   total,
		Score:   Score(len(correctByQuestion), total),
		Answers: graded,
	}
}
