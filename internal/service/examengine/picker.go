package examengine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// PickVersion выбирает версию для новой попытки.
// Предпочитается версия с наименьшим номером, ещё не встречавшаяся в прошлых попытках пользователя;
// если использованы все, выбирается равновероятно любая.
func PickVersion(versions []entity.EvaluationVersion, prior []entity.Attempt, rnd *Random) (*entity.EvaluationVersion, error) {
	if len(versions) == 0 {
		return nil, apperrors.ErrVersionNotFound
	}

	ordered := make([]entity.EvaluationVersion, len(versions))
	copy(ordered, versions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].VersionNumber < ordered[j].VersionNumber
	})

	used := make(map[uuid.UUID]struct{}, len(prior))
	for _, a := range prior {
		used[a.VersionID] = struct{}{}
	}

	for i := range ordered {
		if _, ok := used[ordered[i].ID]; !ok {
			return &ordered[i], nil
		}
	}

	if rnd == nil {
		rnd = NewRandom()
	}
	return &ordered[rnd.Intn(len(ordered))], nil
}

// CountTerminated возвращает число завершённых попыток
func CountTerminated(attempts []entity.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.IsTerminated() {
			n++
		}
	}
	return n
}

// FindInProgress возвращает незавершённую попытку, если она есть
func FindInProgress(attempts []entity.Attempt) *entity.Attempt {
	for i := range attempts {
		if attempts[i].IsInProgress() {
			return &attempts[i]
		}
	}
	return nil
}
