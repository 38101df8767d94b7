package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

const notifyTimeout = 30 * time.Second

// GradeResult: итог оценки попытки
type GradeResult struct {
	AttemptID    uuid.UUID           `json:"attempt_id"`
	Score        float64             `json:"score"`
	Passed       bool                `json:"passed"`
	Correct      int                 `json:"correct"`
	Total        int                 `json:"total"`
	PassingScore float64             `json:"passing_score"`
	State        entity.AttemptState `json:"state"`
	FinishedAt   time.Time           `json:"finished_at"`
	OutOfTime    bool                `json:"out_of_time"` // информативно: оценка не штрафуется
}

// GradingService оценивает завершённые попытки
type GradingService struct {
	evaluationRepo repository.EvaluationRepository
	versionRepo    repository.VersionRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	questionRepo   repository.QuestionRepository
	userRepo       repository.UserRepository
	notifier       ResultNotifier
	audit          *AuditService
	metrics        ExamMetrics
	log            *logger.Logger
	now            func() time.Time
	wg             sync.WaitGroup
}

// NewGradingService создает новый сервис оценки
func NewGradingService(
	evaluationRepo repository.EvaluationRepository,
	versionRepo repository.VersionRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	notifier ResultNotifier,
	audit *AuditService,
	metrics ExamMetrics,
	log *logger.Logger,
) *GradingService {
	return &GradingService{
		evaluationRepo: evaluationRepo,
		versionRepo:    versionRepo,
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		questionRepo:   questionRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		audit:          audit,
		metrics:        metricsOrNoop(metrics),
		log:            log.With("component", "grading_service"),
		now:            time.Now,
	}
}

// Grade оценивает попытку и переводит её в terminated.
// Ответы с флагами правильности и итог попытки записываются одной транзакцией.
// Повторная оценка возвращает apperrors.ErrAlreadyGraded.
func (s *GradingService) Grade(ctx context.Context, actor Actor, attemptID uuid.UUID) (*GradeResult, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, apperrors.Persistence("get attempt", err)
	}
	if !actor.CanAccess(attempt.UserID) {
		return nil, apperrors.ErrForbidden
	}
	if attempt.IsTerminated() {
		return nil, apperrors.ErrAlreadyGraded
	}

	evaluation, err := s.evaluationRepo.GetByID(ctx, attempt.EvaluationID)
	if err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}
	version, err := s.versionRepo.GetByID(ctx, attempt.VersionID)
	if err != nil {
		// Версию могла удалить перегенерация
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: version %s of attempt %s", apperrors.ErrVersionNotFound, attempt.VersionID, attempt.ID)
		}
		return nil, apperrors.Persistence("get version", err)
	}

	answers, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, apperrors.Persistence("list answers", err)
	}
	questions, err := s.questionRepo.FetchByIDs(ctx, version.QuestionIDs)
	if err != nil {
		return nil, apperrors.Persistence("fetch questions", err)
	}

	grading := examengine.GradeAnswers(version, questions, answers)
	finishedAt := s.now()
	outcome := entity.AttemptOutcome{
		Score:      grading.Score,
		Passed:     evaluation.IsPassing(grading.Score),
		FinishedAt: finishedAt,
	}

	if err := s.attemptRepo.Finalize(ctx, attempt.ID, grading.Answers, outcome); err != nil {
		return nil, apperrors.Persistence("finalize attempt", err)
	}

	outOfTime := attempt.IsOverdue(finishedAt)
	s.metrics.AttemptGraded(outcome.Score, outcome.Passed, outOfTime, finishedAt.Sub(attempt.StartedAt))
	s.log.Info("Attempt graded",
		"attempt_id", attempt.ID, "user_id", attempt.UserID, "score", outcome.Score,
		"passed", outcome.Passed, "correct", grading.Correct, "total", grading.Total, "out_of_time", outOfTime)

	s.audit.Record(actor, AuditEntry{
		Action:      entity.AuditActionFinishExam,
		Entity:      "attempt",
		EntityID:    attempt.ID,
		Description: fmt.Sprintf("Попытка %d завершена: %.2f (%d из %d)", attempt.AttemptNumber, outcome.Score, grading.Correct, grading.Total),
		Payload: map[string]interface{}{
			"evaluation_id": evaluation.ID,
			"score":         outcome.Score,
			"passed":        outcome.Passed,
			"out_of_time":   outOfTime,
		},
	})
	s.notify(attempt.UserID, attempt.ID, evaluation, outcome)

	return &GradeResult{
		AttemptID:    attempt.ID,
		Score:        outcome.Score,
		Passed:       outcome.Passed,
		Correct:      grading.Correct,
		Total:        grading.Total,
		PassingScore: evaluation.PassingScore,
		State:        entity.AttemptStateTerminated,
		FinishedAt:   finishedAt,
		OutOfTime:    outOfTime,
	}, nil
}

// notify отправляет письмо с результатом в фоне
func (s *GradingService) notify(userID, attemptID uuid.UUID, evaluation *entity.Evaluation, outcome entity.AttemptOutcome) {
	if s.notifier == nil || s.userRepo == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.log.Warn("Result notification skipped: user lookup failed", "user_id", userID, "error", err)
			return
		}
		notice := ResultNotice{
			AttemptID:       attemptID.String(),
			Email:           user.Email,
			StudentName:     user.FullName(),
			EvaluationTitle: evaluation.Title,
			Score:           outcome.Score,
			PassingScore:    evaluation.PassingScore,
			Passed:          outcome.Passed,
		}
		if err := s.notifier.NotifyResult(ctx, notice); err != nil {
			s.log.Error("Failed to send result notification", "attempt_id", attemptID, "error", err)
		}
	}()
}

// Wait дожидается фоновых уведомлений
func (s *GradingService) Wait() {
	s.wg.Wait()
}
