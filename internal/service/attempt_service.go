package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// AttemptConfig: настройки жизненного цикла попыток
type AttemptConfig struct {
	StrictDeadline   bool
	StartLockTTL     time.Duration
	QuestionCacheTTL time.Duration
}

// StartedAttempt: результат начала попытки
type StartedAttempt struct {
	Attempt       *entity.Attempt `json:"attempt"`
	VersionNumber int             `json:"version_number"`
	QuestionCount int             `json:"question_count"`
}

// AttemptQuestion: вопрос попытки без эталонного ответа
type AttemptQuestion struct {
	ID        uuid.UUID           `json:"id"`
	Position  int                 `json:"position"`
	Statement string              `json:"statement"`
	Type      entity.QuestionType `json:"type"`
	Options   entity.OptionList   `json:"options"`
}

// AvailableEvaluation: экзамен, доступный студенту, и его прогресс
type AvailableEvaluation struct {
	Evaluation   entity.Evaluation `json:"evaluation"`
	AttemptsMade int               `json:"attempts_made"`
	LastAttempt  *entity.Attempt   `json:"last_attempt,omitempty"`
	InProgress   *entity.Attempt   `json:"in_progress,omitempty"`
	BestScore    *float64          `json:"best_score,omitempty"`
	CanStart     bool              `json:"can_start"`
}

// AttemptDetail: попытка с ответами
type AttemptDetail struct {
	Attempt      *entity.Attempt `json:"attempt"`
	Title        string          `json:"title"`
	PassingScore float64         `json:"passing_score"`
	Answers      []entity.Answer `json:"answers"`
}

// AttemptService управляет попытками студентов
type AttemptService struct {
	evaluationRepo repository.EvaluationRepository
	versionRepo    repository.VersionRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	questionRepo   repository.QuestionRepository
	enrollmentRepo repository.EnrollmentRepository
	cacheRepo      repository.CacheRepository
	audit          *AuditService
	metrics        ExamMetrics
	rnd            *examengine.Random
	config         AttemptConfig
	log            *logger.Logger
	now            func() time.Time
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	evaluationRepo repository.EvaluationRepository,
	versionRepo repository.VersionRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	enrollmentRepo repository.EnrollmentRepository,
	cacheRepo repository.CacheRepository,
	audit *AuditService,
	metrics ExamMetrics,
	rnd *examengine.Random,
	config AttemptConfig,
	log *logger.Logger,
) *AttemptService {
	if rnd == nil {
		rnd = examengine.NewRandom()
	}
	return &AttemptService{
		evaluationRepo: evaluationRepo,
		versionRepo:    versionRepo,
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		questionRepo:   questionRepo,
		enrollmentRepo: enrollmentRepo,
		cacheRepo:      cacheRepo,
		audit:          audit,
		metrics:        metricsOrNoop(metrics),
		rnd:            rnd,
		config:         config,
		log:            log.With("component", "attempt_service"),
		now:            time.Now,
	}
}

// Start начинает новую попытку актора по экзамену.
// Проверки выполняются в порядке: зачисление, активность экзамена,
// незавершённая попытка, лимит попыток, наличие версий.
func (s *AttemptService) Start(ctx context.Context, actor Actor, evaluationID uuid.UUID) (*StartedAttempt, error) {
	started, err := s.start(ctx, actor, evaluationID)
	if err != nil {
		s.metrics.AttemptRejected(err)
		s.log.Info("Attempt start rejected", "user_id", actor.UserID, "evaluation_id", evaluationID, "error", err)
		return nil, err
	}

	s.metrics.AttemptStarted()
	s.log.Info("Attempt started",
		"attempt_id", started.Attempt.ID, "user_id", actor.UserID, "evaluation_id", evaluationID,
		"attempt_number", started.Attempt.AttemptNumber, "version", started.VersionNumber)
	s.audit.Record(actor, AuditEntry{
		Action:      entity.AuditActionStartExam,
		Entity:      "attempt",
		EntityID:    started.Attempt.ID,
		Description: fmt.Sprintf("Начата попытка %d, версия %d", started.Attempt.AttemptNumber, started.VersionNumber),
		Payload: map[string]interface{}{
			"evaluation_id":  evaluationID,
			"version_id":     started.Attempt.VersionID,
			"attempt_number": started.Attempt.AttemptNumber,
		},
	})
	return started, nil
}

func (s *AttemptService) start(ctx context.Context, actor Actor, evaluationID uuid.UUID) (*StartedAttempt, error) {
	evaluation, err := s.evaluationRepo.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}

	courseID, err := s.evaluationRepo.GetCourseID(ctx, evaluationID)
	if err != nil {
		return nil, apperrors.Persistence("resolve course", err)
	}
	enrolled, err := s.enrollmentRepo.IsEnrolled(ctx, actor.UserID, courseID)
	if err != nil {
		return nil, apperrors.Persistence("check enrollment", err)
	}
	if !enrolled {
		return nil, apperrors.ErrNotEnrolled
	}

	if !evaluation.Active {
		return nil, apperrors.ErrInactiveEvaluation
	}

	release, err := s.acquireStartLock(ctx, actor.UserID, evaluationID)
	if err != nil {
		return nil, err
	}
	defer release()

	prior, err := s.attemptRepo.ListByUserAndEvaluation(ctx, actor.UserID, evaluationID)
	if err != nil {
		return nil, apperrors.Persistence("list attempts", err)
	}
	if inProgress := examengine.FindInProgress(prior); inProgress != nil {
		return nil, fmt.Errorf("%w: attempt %s", apperrors.ErrAttemptInProgress, inProgress.ID)
	}
	if evaluation.AttemptsExhausted(examengine.CountTerminated(prior)) {
		return nil, apperrors.ErrAttemptsExhausted
	}

	versions, err := s.versionRepo.ListByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, apperrors.Persistence("list versions", err)
	}
	version, err := examengine.PickVersion(versions, prior, s.rnd)
	if err != nil {
		return nil, err
	}

	startedAt := s.now()
	attempt := &entity.Attempt{
		ID:            uuid.New(),
		UserID:        actor.UserID,
		EvaluationID:  evaluationID,
		VersionID:     version.ID,
		AttemptNumber: len(prior) + 1,
		State:         entity.AttemptStateInProgress,
		StartedAt:     startedAt,
		Deadline:      evaluation.Deadline(startedAt),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, apperrors.Persistence("create attempt", err)
	}

	return &StartedAttempt{
		Attempt:       attempt,
		VersionNumber: version.VersionNumber,
		QuestionCount: version.QuestionCount(),
	}, nil
}

// acquireStartLock сужает окно гонки двойного старта.
// Недоступный Redis не блокирует старт: гонку закрывает уникальный индекс.
func (s *AttemptService) acquireStartLock(ctx context.Context, userID, evaluationID uuid.UUID) (func(), error) {
	noop := func() {}
	if s.cacheRepo == nil || s.config.StartLockTTL <= 0 {
		return noop, nil
	}

	key := fmt.Sprintf("attempt:start:%s:%s", userID, evaluationID)
	ok, err := s.cacheRepo.SetNX(ctx, key, "1", s.config.StartLockTTL)
	if err != nil {
		s.log.Warn("Start lock unavailable, continuing without it", "key", key, "error", err)
		return noop, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: start already requested", apperrors.ErrAttemptInProgress)
	}
	return func() {
		if err := s.cacheRepo.Delete(context.Background(), key); err != nil {
			s.log.Warn("Failed to release start lock", "key", key, "error", err)
		}
	}, nil
}

// AvailableForStudent возвращает активные экзамены курсов, на которые зачислен актор
func (s *AttemptService) AvailableForStudent(ctx context.Context, actor Actor) ([]AvailableEvaluation, error) {
	courseIDs, err := s.enrollmentRepo.ListCourseIDs(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Persistence("list enrollments", err)
	}
	if len(courseIDs) == 0 {
		return []AvailableEvaluation{}, nil
	}

	evaluations, err := s.evaluationRepo.ListActiveByCourses(ctx, courseIDs)
	if err != nil {
		return nil, apperrors.Persistence("list evaluations", err)
	}
	ids := make([]uuid.UUID, 0, len(evaluations))
	for _, e := range evaluations {
		ids = append(ids, e.ID)
	}
	attempts, err := s.attemptRepo.ListByUserAndEvaluations(ctx, actor.UserID, ids)
	if err != nil {
		return nil, apperrors.Persistence("list attempts", err)
	}

	byEvaluation := make(map[uuid.UUID][]entity.Attempt, len(evaluations))
	for _, a := range attempts {
		byEvaluation[a.EvaluationID] = append(byEvaluation[a.EvaluationID], a)
	}
	best := examengine.BestScores(attempts)

	result := make([]AvailableEvaluation, 0, len(evaluations))
	for _, e := range evaluations {
		own := byEvaluation[e.ID]
		item := AvailableEvaluation{
			Evaluation:   e,
			AttemptsMade: len(own),
			InProgress:   examengine.FindInProgress(own),
		}
		for i := range own {
			if item.LastAttempt == nil || own[i].AttemptNumber > item.LastAttempt.AttemptNumber {
				item.LastAttempt = &own[i]
			}
		}
		if score, ok := best[e.ID]; ok {
			item.BestScore = &score
		}
		item.CanStart = item.InProgress == nil && !e.AttemptsExhausted(examengine.CountTerminated(own))
		result = append(result, item)
	}
	return result, nil
}

// Questions возвращает вопросы версии попытки в порядке версии, без эталонных ответов.
// Неактивные вопросы пропускаются.
func (s *AttemptService) Questions(ctx context.Context, actor Actor, attemptID uuid.UUID) ([]AttemptQuestion, error) {
	attempt, err := s.getAccessible(ctx, actor, attemptID)
	if err != nil {
		return nil, err
	}

	key := versionQuestionsKey(attempt.VersionID)
	if s.cacheRepo != nil {
		var cached []AttemptQuestion
		if err := s.cacheRepo.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("Question cache read failed", "key", key, "error", err)
		}
	}

	version, err := s.versionRepo.GetByID(ctx, attempt.VersionID)
	if err != nil {
		return nil, apperrors.Persistence("get version", err)
	}
	questions, err := s.questionRepo.FetchByIDs(ctx, version.QuestionIDs)
	if err != nil {
		return nil, apperrors.Persistence("fetch questions", err)
	}

	byID := make(map[uuid.UUID]entity.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	result := make([]AttemptQuestion, 0, len(version.QuestionIDs))
	for i, id := range version.QuestionIDs {
		q, ok := byID[id]
		if !ok || !q.Active {
			continue
		}
		result = append(result, AttemptQuestion{
			ID:        q.ID,
			Position:  i + 1,
			Statement: q.Statement,
			Type:      q.Type,
			Options:   q.Options,
		})
	}

	if s.cacheRepo != nil && s.config.QuestionCacheTTL > 0 {
		if err := s.cacheRepo.SetJSON(ctx, key, result, s.config.QuestionCacheTTL); err != nil {
			s.log.Warn("Question cache write failed", "key", key, "error", err)
		}
	}
	return result, nil
}

// RegisterAnswer сохраняет ответ на вопрос попытки; повторный ответ перезаписывает прежний
func (s *AttemptService) RegisterAnswer(ctx context.Context, actor Actor, attemptID, questionID uuid.UUID, raw json.RawMessage) (*entity.Answer, error) {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, fmt.Errorf("%w: answer must be valid JSON", apperrors.ErrValidation)
	}

	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, apperrors.Persistence("get attempt", err)
	}
	if attempt.UserID != actor.UserID {
		return nil, apperrors.ErrForbidden
	}
	if !attempt.IsInProgress() {
		return nil, apperrors.ErrAttemptNotInProgress
	}
	if s.config.StrictDeadline && attempt.IsOverdue(s.now()) {
		return nil, apperrors.ErrTimeLimitExceeded
	}

	version, err := s.versionRepo.GetByID(ctx, attempt.VersionID)
	if err != nil {
		return nil, apperrors.Persistence("get version", err)
	}
	if !version.Contains(questionID) {
		return nil, apperrors.ErrQuestionNotInVersion
	}

	questions, err := s.questionRepo.FetchByIDs(ctx, []uuid.UUID{questionID})
	if err != nil {
		return nil, apperrors.Persistence("fetch question", err)
	}
	if len(questions) > 0 {
		if err := examengine.ValidateAnswer(questions[0].Type, raw); err != nil {
			return nil, err
		}
	}

	answer := &entity.Answer{
		AttemptID:      attempt.ID,
		QuestionID:     questionID,
		SubmittedValue: datatypes.JSON(raw),
	}
	if err := s.answerRepo.Upsert(ctx, answer); err != nil {
		return nil, apperrors.Persistence("upsert answer", err)
	}
	return answer, nil
}

// Detail возвращает попытку с ответами владельцу или персоналу
func (s *AttemptService) Detail(ctx context.Context, actor Actor, attemptID uuid.UUID) (*AttemptDetail, error) {
	attempt, err := s.getAccessible(ctx, actor, attemptID)
	if err != nil {
		return nil, err
	}
	evaluation, err := s.evaluationRepo.GetByID(ctx, attempt.EvaluationID)
	if err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, apperrors.Persistence("list answers", err)
	}
	return &AttemptDetail{
		Attempt:      attempt,
		Title:        evaluation.Title,
		PassingScore: evaluation.PassingScore,
		Answers:      answers,
	}, nil
}

// ListAttempts возвращает попытки экзамена по фильтру (для преподавателя)
func (s *AttemptService) ListAttempts(ctx context.Context, actor Actor, filter entity.AttemptFilter) ([]entity.Attempt, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}
	if _, err := s.evaluationRepo.GetByID(ctx, filter.EvaluationID); err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}
	attempts, err := s.attemptRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Persistence("list attempts", err)
	}
	return attempts, nil
}

// Answers возвращает ответы попытки (для преподавателя)
func (s *AttemptService) Answers(ctx context.Context, actor Actor, attemptID uuid.UUID) ([]entity.Answer, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}
	if _, err := s.attemptRepo.GetByID(ctx, attemptID); err != nil {
		return nil, apperrors.Persistence("get attempt", err)
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, apperrors.Persistence("list answers", err)
	}
	return answers, nil
}

func (s *AttemptService) getAccessible(ctx context.Context, actor Actor, attemptID uuid.UUID) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, apperrors.Persistence("get attempt", err)
	}
	if !actor.CanAccess(attempt.UserID) {
		return nil, apperrors.ErrForbidden
	}
	return attempt, nil
}
