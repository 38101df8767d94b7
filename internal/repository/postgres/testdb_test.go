package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
)

// newTestDB поднимает изолированную in-memory SQLite с той же схемой, что и миграции
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Не удалось открыть SQLite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.CourseModule{},
		&entity.Lesson{},
		&entity.CourseEnrollment{},
		&entity.Question{},
		&entity.Evaluation{},
		&entity.EvaluationVersion{},
		&entity.Attempt{},
		&entity.Answer{},
		&entity.AuditEvent{},
		&entity.Certificate{},
	))
	return db
}

// courseFixture: курс с одним модулем и одним уроком
type courseFixture struct {
	CourseID uuid.UUID
	Module   entity.CourseModule
	Lesson   entity.Lesson
}

func seedCourse(t *testing.T, db *gorm.DB) courseFixture {
	t.Helper()
	f := courseFixture{CourseID: uuid.New()}
	f.Module = entity.CourseModule{ID: uuid.New(), CourseID: f.CourseID, Name: "Módulo 1"}
	f.Lesson = entity.Lesson{ID: uuid.New(), ModuleID: f.Module.ID, Name: "Lección 1"}
	require.NoError(t, db.Create(&f.Module).Error)
	require.NoError(t, db.Create(&f.Lesson).Error)
	return f
}

func seedEvaluation(t *testing.T, db *gorm.DB, lessonID uuid.UUID, active bool) *entity.Evaluation {
	t.Helper()
	e := &entity.Evaluation{
		LessonID:         lessonID,
		Title:            "Examen",
		QuestionsPerExam: 3,
		VersionCount:     2,
		MaxAttempts:      1,
		PassingScore:     60,
		Active:           active,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

func newAttempt(userID, evaluationID uuid.UUID, number int) *entity.Attempt {
	return &entity.Attempt{
		UserID:        userID,
		EvaluationID:  evaluationID,
		VersionID:     uuid.New(),
		AttemptNumber: number,
		State:         entity.AttemptStateInProgress,
		StartedAt:     time.Now().UTC(),
	}
}
