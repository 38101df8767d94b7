package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/internal/repository/postgres"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// examStack: сервисы поверх настоящих репозиториев и in-memory SQLite
type examStack struct {
	db           *gorm.DB
	audit        *AuditService
	evaluations  *EvaluationService
	attempts     *AttemptService
	grading      *GradingService
	certificates *CertificateService
	reports      *ReportService
}

func newExamStack(t *testing.T) *examStack {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Не удалось открыть SQLite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.CourseModule{}, &entity.Lesson{}, &entity.CourseEnrollment{},
		&entity.Question{}, &entity.Evaluation{}, &entity.EvaluationVersion{},
		&entity.Attempt{}, &entity.Answer{}, &entity.AuditEvent{}, &entity.Certificate{},
	))

	log := logger.Nop()
	evaluationRepo := postgres.NewEvaluationRepo(db)
	versionRepo := postgres.NewVersionRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)
	attemptRepo := postgres.NewAttemptRepo(db)
	answerRepo := postgres.NewAnswerRepo(db)
	enrollmentRepo := postgres.NewEnrollmentRepo(db)
	userRepo := postgres.NewUserRepo(db)
	certificateRepo := postgres.NewCertificateRepo(db)
	audit := NewAuditService(time.Second, log, postgres.NewAuditRepo(db))
	rnd := examengine.NewSeededRandom(42)

	return &examStack{
		db:    db,
		audit: audit,
		evaluations: NewEvaluationService(evaluationRepo, versionRepo, questionRepo, nil,
			examengine.NewVersionGenerator(rnd), audit, nil, entity.DefaultPassingScore, log),
		attempts: NewAttemptService(evaluationRepo, versionRepo, attemptRepo, answerRepo, questionRepo,
			enrollmentRepo, nil, audit, nil, rnd, AttemptConfig{}, log),
		grading: NewGradingService(evaluationRepo, versionRepo, attemptRepo, answerRepo, questionRepo,
			userRepo, nil, audit, nil, log),
		certificates: NewCertificateService(evaluationRepo, attemptRepo, enrollmentRepo, certificateRepo,
			userRepo, audit, rnd, log),
		reports: NewReportService(evaluationRepo, attemptRepo, userRepo),
	}
}

// seedLesson создаёт курс с уроком из n открытых вопросов; эталон вопроса i: "respuesta-i"
func (s *examStack) seedLesson(t *testing.T, n int) (courseID, lessonID uuid.UUID, expected map[uuid.UUID]string) {
	t.Helper()
	courseID = uuid.New()
	module := entity.CourseModule{ID: uuid.New(), CourseID: courseID, Name: "Módulo 1"}
	lesson := entity.Lesson{ID: uuid.New(), ModuleID: module.ID, Name: "Lección 1"}
	require.NoError(t, s.db.Create(&module).Error)
	require.NoError(t, s.db.Create(&lesson).Error)

	expected = make(map[uuid.UUID]string, n)
	for i := 1; i <= n; i++ {
		answer := fmt.Sprintf("respuesta-%d", i)
		raw, _ := json.Marshal(answer)
		q := entity.Question{
			LessonID:      lesson.ID,
			Statement:     fmt.Sprintf("Pregunta %d", i),
			Type:          entity.QuestionTypeOpen,
			CorrectAnswer: datatypes.JSON(raw),
			Difficulty:    1,
			Active:        true,
		}
		require.NoError(t, s.db.Create(&q).Error)
		expected[q.ID] = answer
	}
	return courseID, lesson.ID, expected
}

func (s *examStack) seedStudent(t *testing.T, courseID uuid.UUID) Actor {
	t.Helper()
	user := entity.User{ID: uuid.New(), FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com"}
	require.NoError(t, s.db.Create(&user).Error)
	require.NoError(t, s.db.Create(&entity.CourseEnrollment{ID: uuid.New(), CourseID: courseID, UserID: user.ID, Status: "activo"}).Error)
	return Actor{UserID: user.ID, Role: RoleStudent, IP: "127.0.0.1"}
}

func TestExamFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	stack := newExamStack(t)
	courseID, lessonID, expected := stack.seedLesson(t, 5)
	student := stack.seedStudent(t, courseID)
	staff := Actor{UserID: uuid.New(), Role: RoleInstructor}

	// Экзамен: 3 вопроса, 2 версии, 1 попытка, проходной 60
	authored, err := stack.evaluations.Create(ctx, staff, EvaluationInput{
		LessonID:         lessonID,
		Title:            "Examen de la lección 1",
		QuestionsPerExam: 3,
		VersionCount:     2,
		MaxAttempts:      1,
	})
	require.NoError(t, err)
	require.Len(t, authored.Versions, 2)
	evaluationID := authored.Evaluation.ID

	// Старт: назначается версия 1
	started, err := stack.attempts.Start(ctx, student, evaluationID)
	require.NoError(t, err)
	assert.Equal(t, 1, started.VersionNumber, "Первая попытка получает версию 1")
	assert.Equal(t, 1, started.Attempt.AttemptNumber)
	assert.Equal(t, entity.AttemptStateInProgress, started.Attempt.State)

	// Повторный старт при незавершённой попытке
	_, err = stack.attempts.Start(ctx, student, evaluationID)
	assert.ErrorIs(t, err, apperrors.ErrAttemptInProgress)

	// Вопросы попытки без эталонных ответов, в порядке версии
	questions, err := stack.attempts.Questions(ctx, student, started.Attempt.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	// Два верных ответа и один неверный; повторный ответ перезаписывает прежний
	for i, q := range questions {
		value := expected[q.ID]
		if i == 2 {
			value = "no lo sé"
		}
		raw, _ := json.Marshal(value)
		_, err := stack.attempts.RegisterAnswer(ctx, student, started.Attempt.ID, q.ID, raw)
		require.NoError(t, err)
	}
	correctFirst, _ := json.Marshal(expected[questions[0].ID])
	_, err = stack.attempts.RegisterAnswer(ctx, student, started.Attempt.ID, questions[0].ID, correctFirst)
	require.NoError(t, err)

	// Оценка
	result, err := stack.grading.Grade(ctx, student, started.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 66.67, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, entity.AttemptStateTerminated, result.State)
	assert.Equal(t, 2, result.Correct)
	assert.Equal(t, 3, result.Total)

	// Повторная оценка запрещена
	_, err = stack.grading.Grade(ctx, student, started.Attempt.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyGraded)

	// Ответы после оценки не принимаются
	_, err = stack.attempts.RegisterAnswer(ctx, student, started.Attempt.ID, questions[2].ID, correctFirst)
	assert.ErrorIs(t, err, apperrors.ErrAttemptNotInProgress)

	// Лимит попыток исчерпан
	_, err = stack.attempts.Start(ctx, student, evaluationID)
	assert.ErrorIs(t, err, apperrors.ErrAttemptsExhausted)

	// Детали попытки с флагами правильности
	detail, err := stack.attempts.Detail(ctx, student, started.Attempt.ID)
	require.NoError(t, err)
	require.Len(t, detail.Answers, 3, "Повторный ответ не должен создавать новую строку")
	correct := 0
	for _, a := range detail.Answers {
		require.NotNil(t, a.Correct)
		if *a.Correct {
			correct++
		}
	}
	assert.Equal(t, 2, correct)

	// Право на справку и её выдача
	eligibility, err := stack.certificates.IsEligibleForCertificate(ctx, student.UserID, courseID)
	require.NoError(t, err)
	assert.True(t, eligibility.Eligible)
	require.NotNil(t, eligibility.BestScore)
	assert.Equal(t, 66.67, *eligibility.BestScore)

	pending, err := stack.certificates.ListPending(ctx, staff, courseID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ana Ruiz", pending[0].FullName)

	certificate, err := stack.certificates.Issue(ctx, staff, courseID, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, 66.67, certificate.FinalScore)

	_, err = stack.certificates.Issue(ctx, staff, courseID, student.UserID)
	assert.ErrorIs(t, err, apperrors.ErrCertificateExists)

	pending, err = stack.certificates.ListPending(ctx, staff, courseID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Отчёт
	report, err := stack.reports.Report(ctx, staff, evaluationID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalAttempts)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 66.67, report.AverageScore)

	// Журнал аудита
	stack.audit.Wait()
	var actions []string
	require.NoError(t, stack.db.Model(&entity.AuditEvent{}).Order("created_at").Pluck("action", &actions).Error)
	assert.Contains(t, actions, entity.AuditActionStartExam)
	assert.Contains(t, actions, entity.AuditActionFinishExam)
	assert.Contains(t, actions, entity.AuditActionGenerateVersions)
	assert.Contains(t, actions, entity.AuditActionIssueCertificate)
}

func TestExamFlow_RegenerationKeepsVersionsOnShortPool(t *testing.T) {
	ctx := context.Background()
	stack := newExamStack(t)
	_, lessonID, _ := stack.seedLesson(t, 4)
	staff := Actor{UserID: uuid.New(), Role: RoleAdmin}

	authored, err := stack.evaluations.Create(ctx, staff, EvaluationInput{
		LessonID: lessonID, Title: "Examen", QuestionsPerExam: 4, VersionCount: 3,
	})
	require.NoError(t, err)

	// Выключаем два вопроса: пул становится меньше требуемого
	require.NoError(t, stack.db.Model(&entity.Question{}).
		Where("id IN (SELECT id FROM questions WHERE lesson_id = ? LIMIT 2)", lessonID).
		Update("active", false).Error)

	_, err = stack.evaluations.RegenerateVersions(ctx, staff, authored.Evaluation.ID)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientQuestions)

	versions, err := stack.evaluations.ListVersions(ctx, staff, authored.Evaluation.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3, "Существующие версии должны остаться нетронутыми")
	for i, v := range versions {
		assert.Equal(t, authored.Versions[i].ID, v.ID)
	}
}
