package examengine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// VersionGenerator собирает случайные версии экзамена из пула вопросов урока
type VersionGenerator struct {
	rnd *Random
}

// NewVersionGenerator создает новый генератор версий
func NewVersionGenerator(rnd *Random) *VersionGenerator {
	if rnd == nil {
		rnd = NewRandom()
	}
	return &VersionGenerator{rnd: rnd}
}

// Generate возвращает VersionCount версий по QuestionsPerExam различных вопросов в каждой.
// Версии могут пересекаться между собой; внутри версии повторов нет.
// Если пул меньше QuestionsPerExam, возвращает apperrors.ErrInsufficientQuestions и ни одной версии.
func (g *VersionGenerator) Generate(evaluation *entity.Evaluation, pool []uuid.UUID) ([]entity.EvaluationVersion, error) {
	if err := ValidateShape(evaluation.QuestionsPerExam, evaluation.VersionCount); err != nil {
		return nil, err
	}

	unique := dedupe(pool)
	if len(unique) < evaluation.QuestionsPerExam {
		return nil, fmt.Errorf("%w: need %d, have %d",
			apperrors.ErrInsufficientQuestions, evaluation.QuestionsPerExam, len(unique))
	}

	versions := make([]entity.EvaluationVersion, 0, evaluation.VersionCount)
	for number := 1; number <= evaluation.VersionCount; number++ {
		shuffled := make([]uuid.UUID, len(unique))
		copy(shuffled, unique)
		g.rnd.shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		picked := make(entity.UUIDList, evaluation.QuestionsPerExam)
		copy(picked, shuffled[:evaluation.QuestionsPerExam])

		versions = append(versions, entity.EvaluationVersion{
			EvaluationID:  evaluation.ID,
			VersionNumber: number,
			QuestionIDs:   picked,
		})
	}

	return versions, nil
}

// ValidateShape проверяет параметры сборки версий
func ValidateShape(questionsPerExam, versionCount int) error {
	if questionsPerExam <= 0 {
		return fmt.Errorf("%w: questions per exam must be greater than 0", apperrors.ErrValidation)
	}
	if versionCount <= 0 {
		return fmt.Errorf("%w: version count must be greater than 0", apperrors.ErrValidation)
	}
	return nil
}

// dedupe убирает повторы и нулевые идентификаторы, сохраняя порядок
func dedupe(pool []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(pool))
	out := make([]uuid.UUID, 0, len(pool))
	for _, id := range pool {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// QuestionIDs возвращает идентификаторы вопросов в исходном порядке
func QuestionIDs(questions []entity.Question) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return ids
}
