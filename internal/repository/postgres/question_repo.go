package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// FetchActiveByLesson возвращает активные вопросы урока
func (r *QuestionRepo) FetchActiveByLesson(ctx context.Context, lessonID uuid.UUID) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Where("lesson_id = ? AND active = ?", lessonID, true).
		Order("created_at, id").
		Find(&questions).Error
	return questions, err
}

// FetchByIDs возвращает вопросы по списку идентификаторов
func (r *QuestionRepo) FetchByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}
	var questions []entity.Question
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}
