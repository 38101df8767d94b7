package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create сохраняет новую попытку.
// Частичный уникальный индекс idx_attempts_single_in_progress закрывает гонку двойного старта.
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.Attempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s, evaluation %s", apperrors.ErrAttemptInProgress, attempt.UserID, attempt.EvaluationID)
		}
		return err
	}
	return nil
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Attempt, error) {
	var attempt entity.Attempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

// ListByUserAndEvaluation возвращает все попытки пользователя по экзамену
func (r *AttemptRepo) ListByUserAndEvaluation(ctx context.Context, userID, evaluationID uuid.UUID) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND evaluation_id = ?", userID, evaluationID).
		Order("attempt_number").
		Find(&attempts).Error
	return attempts, err
}

// ListByUserAndEvaluations возвращает попытки пользователя по набору экзаменов
func (r *AttemptRepo) ListByUserAndEvaluations(ctx context.Context, userID uuid.UUID, evaluationIDs []uuid.UUID) ([]entity.Attempt, error) {
	if len(evaluationIDs) == 0 {
		return []entity.Attempt{}, nil
	}
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND evaluation_id IN ?", userID, evaluationIDs).
		Order("evaluation_id, attempt_number").
		Find(&attempts).Error
	return attempts, err
}

// ListTerminatedByEvaluation возвращает завершённые попытки экзамена
func (r *AttemptRepo) ListTerminatedByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ? AND state = ?", evaluationID, entity.AttemptStateTerminated).
		Order("finished_at").
		Find(&attempts).Error
	return attempts, err
}

// List возвращает попытки экзамена по фильтру
func (r *AttemptRepo) List(ctx context.Context, filter entity.AttemptFilter) ([]entity.Attempt, error) {
	query := r.db.WithContext(ctx).Where("evaluation_id = ?", filter.EvaluationID)

	// Применяем фильтры
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.From != nil {
		query = query.Where("started_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("started_at <= ?", *filter.To)
	}

	var attempts []entity.Attempt
	err := query.Order("started_at DESC").Find(&attempts).Error
	return attempts, err
}

// Finalize переводит попытку в terminated и сохраняет оценённые ответы в одной транзакции.
// Условный UPDATE по state = in_progress делает оценку одноразовой.
func (r *AttemptRepo) Finalize(ctx context.Context, attemptID uuid.UUID, answers []entity.Answer, outcome entity.AttemptOutcome) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Attempt{}).
			Where("id = ? AND state = ?", attemptID, entity.AttemptStateInProgress).
			Updates(map[string]interface{}{
				"state":       entity.AttemptStateTerminated,
				"score":       outcome.Score,
				"passed":      outcome.Passed,
				"finished_at": outcome.FinishedAt,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: attempt %s", apperrors.ErrAlreadyGraded, attemptID)
		}

		for i := range answers {
			answers[i].AttemptID = attemptID
			if err := upsertAnswer(tx, &answers[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Upsert создаёт или перезаписывает ответ студента по ключу (попытка, вопрос).
// Строка попытки блокируется до записи: после Finalize ответы не меняются.
func (r *AnswerRepo) Upsert(ctx context.Context, answer *entity.Answer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attempt entity.Attempt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "state").
			First(&attempt, "id = ?", answer.AttemptID).Error
		if err != nil {
			return notFound(err)
		}
		if attempt.State != entity.AttemptStateInProgress {
			return fmt.Errorf("%w: attempt %s", apperrors.ErrAttemptNotInProgress, answer.AttemptID)
		}

		answer.Correct = nil
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"submitted_value", "updated_at"}),
		}).Create(answer).Error
	})
}

// ListByAttempt возвращает ответы попытки
func (r *AnswerRepo) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("created_at, id").
		Find(&answers).Error
	return answers, err
}

// upsertAnswer записывает оценённый ответ при финализации
func upsertAnswer(db *gorm.DB, answer *entity.Answer) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"submitted_value", "correct", "updated_at"}),
	}).Create(answer).Error
}
