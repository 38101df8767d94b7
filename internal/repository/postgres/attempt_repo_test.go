package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

func TestAttemptRepo_SingleInProgressPerUser(t *testing.T) {
	// Arrange
	db := newTestDB(t)
	repo := NewAttemptRepo(db)
	ctx := context.Background()
	userID, evaluationID := uuid.New(), uuid.New()

	first := newAttempt(userID, evaluationID, 1)
	require.NoError(t, repo.Create(ctx, first))

	// Act: второй старт при незавершённой попытке
	err := repo.Create(ctx, newAttempt(userID, evaluationID, 2))

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrAttemptInProgress, "Уникальный индекс должен отклонить вторую незавершённую попытку")

	// Другой пользователь или другой экзамен не мешают
	assert.NoError(t, repo.Create(ctx, newAttempt(uuid.New(), evaluationID, 1)))
	assert.NoError(t, repo.Create(ctx, newAttempt(userID, uuid.New(), 1)))

	// После завершения можно начать новую попытку
	require.NoError(t, repo.Finalize(ctx, first.ID, nil, entity.AttemptOutcome{Score: 50, FinishedAt: time.Now().UTC()}))
	assert.NoError(t, repo.Create(ctx, newAttempt(userID, evaluationID, 2)))
}

func TestAttemptRepo_FinalizeIsOneShot(t *testing.T) {
	// Arrange
	db := newTestDB(t)
	repo := NewAttemptRepo(db)
	answers := NewAnswerRepo(db)
	ctx := context.Background()

	attempt := newAttempt(uuid.New(), uuid.New(), 1)
	require.NoError(t, repo.Create(ctx, attempt))

	q1, q2 := uuid.New(), uuid.New()
	require.NoError(t, answers.Upsert(ctx, &entity.Answer{AttemptID: attempt.ID, QuestionID: q1, SubmittedValue: []byte(`"a"`)}))

	yes, no := true, false
	graded := []entity.Answer{
		{QuestionID: q1, SubmittedValue: []byte(`"a"`), Correct: &yes},
		{QuestionID: q2, SubmittedValue: []byte(`"x"`), Correct: &no},
	}
	finishedAt := time.Now().UTC()

	// Act
	err := repo.Finalize(ctx, attempt.ID, graded, entity.AttemptOutcome{Score: 66.67, Passed: true, FinishedAt: finishedAt})
	require.NoError(t, err)

	second := repo.Finalize(ctx, attempt.ID, nil, entity.AttemptOutcome{Score: 0, Passed: false, FinishedAt: time.Now().UTC()})

	// Assert
	assert.ErrorIs(t, second, apperrors.ErrAlreadyGraded, "Повторная оценка должна быть отклонена")

	stored, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AttemptStateTerminated, stored.State)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 66.67, *stored.Score, "Оценка первой проверки не должна меняться")
	require.NotNil(t, stored.Passed)
	assert.True(t, *stored.Passed)
	assert.NotNil(t, stored.FinishedAt)

	saved, err := answers.ListByAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	require.Len(t, saved, 2, "Ответ на q1 перезаписан, ответ на q2 добавлен")
	for _, a := range saved {
		require.NotNil(t, a.Correct)
		assert.Equal(t, a.QuestionID == q1, *a.Correct)
	}
}

func TestAttemptRepo_FinalizeRollsBackOnAlreadyGraded(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttemptRepo(db)
	answers := NewAnswerRepo(db)
	ctx := context.Background()

	attempt := newAttempt(uuid.New(), uuid.New(), 1)
	require.NoError(t, repo.Create(ctx, attempt))
	require.NoError(t, repo.Finalize(ctx, attempt.ID, nil, entity.AttemptOutcome{FinishedAt: time.Now().UTC()}))

	late := []entity.Answer{{QuestionID: uuid.New(), SubmittedValue: []byte(`"z"`)}}
	err := repo.Finalize(ctx, attempt.ID, late, entity.AttemptOutcome{Score: 100, FinishedAt: time.Now().UTC()})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyGraded)
	saved, err := answers.ListByAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Empty(t, saved, "Ответы не должны записываться в оценённую попытку")
}

func TestAnswerRepo_UpsertIsIdempotentPerQuestion(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnswerRepo(db)
	ctx := context.Background()
	attempt := newAttempt(uuid.New(), uuid.New(), 1)
	require.NoError(t, NewAttemptRepo(db).Create(ctx, attempt))
	attemptID, questionID := attempt.ID, uuid.New()

	require.NoError(t, repo.Upsert(ctx, &entity.Answer{AttemptID: attemptID, QuestionID: questionID, SubmittedValue: []byte(`"a"`)}))
	require.NoError(t, repo.Upsert(ctx, &entity.Answer{AttemptID: attemptID, QuestionID: questionID, SubmittedValue: []byte(`"b"`)}))

	saved, err := repo.ListByAttempt(ctx, attemptID)
	require.NoError(t, err)
	require.Len(t, saved, 1, "Повторная отправка перезаписывает ответ")
	assert.JSONEq(t, `"b"`, string(saved[0].SubmittedValue))
	assert.Nil(t, saved[0].Correct, "До оценки флаг правильности не выставлен")
}

func TestAnswerRepo_UpsertRejectedAfterFinalize(t *testing.T) {
	// Arrange
	db := newTestDB(t)
	attempts := NewAttemptRepo(db)
	answers := NewAnswerRepo(db)
	ctx := context.Background()

	attempt := newAttempt(uuid.New(), uuid.New(), 1)
	require.NoError(t, attempts.Create(ctx, attempt))

	questionID := uuid.New()
	yes := true
	graded := []entity.Answer{{QuestionID: questionID, SubmittedValue: []byte(`"a"`), Correct: &yes}}
	require.NoError(t, attempts.Finalize(ctx, attempt.ID, graded, entity.AttemptOutcome{Score: 100, Passed: true, FinishedAt: time.Now().UTC()}))

	// Act: ответ приходит после оценки
	err := answers.Upsert(ctx, &entity.Answer{AttemptID: attempt.ID, QuestionID: questionID, SubmittedValue: []byte(`"zzz"`)})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrAttemptNotInProgress, "Завершённая попытка не принимает ответы")

	saved, err := answers.ListByAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.JSONEq(t, `"a"`, string(saved[0].SubmittedValue), "Оценённый ответ не должен перезаписываться")
	require.NotNil(t, saved[0].Correct, "Флаг правильности должен сохраниться")
	assert.True(t, *saved[0].Correct)
}

func TestAnswerRepo_UpsertUnknownAttempt(t *testing.T) {
	repo := NewAnswerRepo(newTestDB(t))

	err := repo.Upsert(context.Background(), &entity.Answer{AttemptID: uuid.New(), QuestionID: uuid.New(), SubmittedValue: []byte(`"a"`)})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAttemptRepo_ListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttemptRepo(db)
	ctx := context.Background()
	evaluationID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	a1 := newAttempt(alice, evaluationID, 1)
	a1.StartedAt = base
	require.NoError(t, repo.Create(ctx, a1))
	require.NoError(t, repo.Finalize(ctx, a1.ID, nil, entity.AttemptOutcome{Score: 90, Passed: true, FinishedAt: base.Add(time.Hour)}))

	a2 := newAttempt(alice, evaluationID, 2)
	a2.StartedAt = base.Add(48 * time.Hour)
	require.NoError(t, repo.Create(ctx, a2))

	b1 := newAttempt(bob, evaluationID, 1)
	b1.StartedAt = base.Add(24 * time.Hour)
	require.NoError(t, repo.Create(ctx, b1))

	require.NoError(t, repo.Create(ctx, newAttempt(alice, uuid.New(), 1)))

	all, err := repo.List(ctx, entity.AttemptFilter{EvaluationID: evaluationID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, a2.ID, all[0].ID, "Новые попытки идут первыми")

	byUser, err := repo.List(ctx, entity.AttemptFilter{EvaluationID: evaluationID, UserID: &alice})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	state := entity.AttemptStateTerminated
	byState, err := repo.List(ctx, entity.AttemptFilter{EvaluationID: evaluationID, State: &state})
	require.NoError(t, err)
	require.Len(t, byState, 1)
	assert.Equal(t, a1.ID, byState[0].ID)

	from, to := base.Add(12*time.Hour), base.Add(36*time.Hour)
	byRange, err := repo.List(ctx, entity.AttemptFilter{EvaluationID: evaluationID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, b1.ID, byRange[0].ID)

	terminated, err := repo.ListTerminatedByEvaluation(ctx, evaluationID)
	require.NoError(t, err)
	assert.Len(t, terminated, 1)

	mine, err := repo.ListByUserAndEvaluations(ctx, alice, []uuid.UUID{evaluationID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestAttemptRepo_GetByIDNotFound(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
