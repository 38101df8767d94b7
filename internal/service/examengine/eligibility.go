package examengine

import (
	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// EvaluationStanding: лучший результат пользователя по одному экзамену курса
type EvaluationStanding struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	Title        string    `json:"title"`
	PassingScore float64   `json:"passing_score"`
	BestScore    *float64  `json:"best_score,omitempty"` // nil: нет завершённых попыток
	Passed       bool      `json:"passed"`
}

// Eligibility: право на получение справки по курсу
type Eligibility struct {
	Eligible    bool                 `json:"eligible"`
	BestScore   *float64             `json:"best_score,omitempty"` // только при Eligible
	Evaluations []EvaluationStanding `json:"evaluations"`
}

// AggregateEligibility сворачивает попытки пользователя по активным экзаменам курса.
// Пустой набор экзаменов не даёт права на справку.
// Экзамен без завершённой попытки сразу делает результат отрицательным.
// BestScore: максимум лучших оценок по всем экзаменам, а не среднее.
func AggregateEligibility(evaluations []entity.Evaluation, attempts []entity.Attempt) Eligibility {
	result := Eligibility{Evaluations: make([]EvaluationStanding, 0, len(evaluations))}
	if len(evaluations) == 0 {
		return result
	}

	best := BestScores(attempts)

	eligible := true
	var overall *float64
	for _, e := range evaluations {
		standing := EvaluationStanding{
			EvaluationID: e.ID,
			Title:        e.Title,
			PassingScore: e.PassingScore,
		}
		score, ok := best[e.ID]
		if !ok {
			result.Evaluations = append(result.Evaluations, standing)
			return result
		}

		s := score
		standing.BestScore = &s
		standing.Passed = e.IsPassing(score)
		result.Evaluations = append(result.Evaluations, standing)

		if !standing.Passed {
			eligible = false
		}
		if overall == nil || score > *overall {
			overall = &s
		}
	}

	result.Eligible = eligible
	if eligible {
		result.BestScore = overall
	}
	return result
}

// BestScores возвращает лучшую оценку завершённых попыток по каждому экзамену
func BestScores(attempts []entity.Attempt) map[uuid.UUID]float64 {
	best := make(map[uuid.UUID]float64)
	for _, a := range attempts {
		if !a.IsTerminated() || a.Score == nil {
			continue
		}
		if cur, ok := best[a.EvaluationID]; !ok || *a.Score > cur {
			best[a.EvaluationID] = *a.Score
		}
	}
	return best
}
