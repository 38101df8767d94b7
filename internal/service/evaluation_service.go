package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// EvaluationInput: параметры создания или изменения экзамена.
// Поля-указатели, не заданные при изменении, сохраняют прежнее значение.
type EvaluationInput struct {
	LessonID         uuid.UUID
	Title            string
	Description      string
	QuestionsPerExam int
	VersionCount     int
	MaxAttempts      int
	TimeLimitMinutes *int // 0 снимает ограничение
	PassingScore     *float64
	Active           *bool
}

// AuthoredEvaluation: экзамен вместе с текущими версиями
type AuthoredEvaluation struct {
	Evaluation  *entity.Evaluation         `json:"evaluation"`
	Versions    []entity.EvaluationVersion `json:"versions"`
	Regenerated bool                       `json:"regenerated"`
}

// EvaluationService управляет экзаменами и их версиями
type EvaluationService struct {
	evaluationRepo      repository.EvaluationRepository
	versionRepo         repository.VersionRepository
	questionRepo        repository.QuestionRepository
	cacheRepo           repository.CacheRepository
	generator           *examengine.VersionGenerator
	audit               *AuditService
	metrics             ExamMetrics
	defaultPassingScore float64
	log                 *logger.Logger
}

// NewEvaluationService создает новый сервис экзаменов
func NewEvaluationService(
	evaluationRepo repository.EvaluationRepository,
	versionRepo repository.VersionRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	generator *examengine.VersionGenerator,
	audit *AuditService,
	metrics ExamMetrics,
	defaultPassingScore float64,
	log *logger.Logger,
) *EvaluationService {
	if generator == nil {
		generator = examengine.NewVersionGenerator(nil)
	}
	return &EvaluationService{
		evaluationRepo:      evaluationRepo,
		versionRepo:         versionRepo,
		questionRepo:        questionRepo,
		cacheRepo:           cacheRepo,
		generator:           generator,
		audit:               audit,
		metrics:             metricsOrNoop(metrics),
		defaultPassingScore: defaultPassingScore,
		log:                 log.With("component", "evaluation_service"),
	}
}

// Create создает экзамен и сразу генерирует его версии.
// При нехватке вопросов в уроке ничего не сохраняется.
func (s *EvaluationService) Create(ctx context.Context, actor Actor, in EvaluationInput) (*AuthoredEvaluation, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	evaluation := &entity.Evaluation{
		ID:           uuid.New(),
		PassingScore: s.defaultPassingScore,
		Active:       true,
		CreatedBy:    actor.UserID,
	}
	applyInput(evaluation, in)
	if err := validateEvaluation(evaluation); err != nil {
		return nil, err
	}

	versions, err := s.buildVersions(ctx, evaluation)
	if err != nil {
		return nil, err
	}

	if err := s.evaluationRepo.Create(ctx, evaluation); err != nil {
		return nil, apperrors.Persistence("create evaluation", err)
	}
	if err := s.versionRepo.ReplaceForEvaluation(ctx, evaluation.ID, versions); err != nil {
		s.log.Error("Evaluation created without versions", "evaluation_id", evaluation.ID, "error", err)
		return nil, apperrors.Persistence("store versions", err)
	}

	s.audit.Record(actor, AuditEntry{
		Action:      entity.AuditActionCreateEvaluation,
		Entity:      "evaluation",
		EntityID:    evaluation.ID,
		Description: fmt.Sprintf("Создан экзамен «%s»", evaluation.Title),
	})
	s.recordGenerated(actor, evaluation, versions)

	return &AuthoredEvaluation{Evaluation: evaluation, Versions: versions, Regenerated: true}, nil
}

// Update изменяет экзамен. Версии пересобираются, только если изменились урок,
// число вопросов на экзамен или число версий.
func (s *EvaluationService) Update(ctx context.Context, actor Actor, id uuid.UUID, in EvaluationInput) (*AuthoredEvaluation, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	prev, err := s.evaluationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}

	updated := *prev
	applyInput(&updated, in)
	if err := validateEvaluation(&updated); err != nil {
		return nil, err
	}

	regenerate := updated.NeedsRegeneration(prev)
	var versions []entity.EvaluationVersion
	if regenerate {
		// Сборка до записи: при нехватке вопросов экзамен и версии остаются прежними
		versions, err = s.buildVersions(ctx, &updated)
		if err != nil {
			return nil, err
		}
	}

	if err := s.evaluationRepo.Update(ctx, &updated); err != nil {
		return nil, apperrors.Persistence("update evaluation", err)
	}

	s.audit.Record(actor, AuditEntry{
		Action:      entity.AuditActionUpdateEvaluation,
		Entity:      "evaluation",
		EntityID:    updated.ID,
		Description: fmt.Sprintf("Изменён экзамен «%s»", updated.Title),
	})

	if !regenerate {
		current, err := s.versionRepo.ListByEvaluation(ctx, id)
		if err != nil {
			return nil, apperrors.Persistence("list versions", err)
		}
		return &AuthoredEvaluation{Evaluation: &updated, Versions: current}, nil
	}

	if err := s.replaceVersions(ctx, updated.ID, versions); err != nil {
		return nil, err
	}
	s.recordGenerated(actor, &updated, versions)

	return &AuthoredEvaluation{Evaluation: &updated, Versions: versions, Regenerated: true}, nil
}

// RegenerateVersions заменяет все версии экзамена новыми.
// При нехватке вопросов существующие версии не трогаются.
func (s *EvaluationService) RegenerateVersions(ctx context.Context, actor Actor, id uuid.UUID) ([]entity.EvaluationVersion, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	evaluation, err := s.evaluationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}

	versions, err := s.buildVersions(ctx, evaluation)
	if err != nil {
		return nil, err
	}
	if err := s.replaceVersions(ctx, evaluation.ID, versions); err != nil {
		return nil, err
	}
	s.recordGenerated(actor, evaluation, versions)

	return versions, nil
}

// ListVersions возвращает версии экзамена по возрастанию номера
func (s *EvaluationService) ListVersions(ctx context.Context, actor Actor, id uuid.UUID) ([]entity.EvaluationVersion, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}
	if _, err := s.evaluationRepo.GetByID(ctx, id); err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}
	versions, err := s.versionRepo.ListByEvaluation(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("list versions", err)
	}
	return versions, nil
}

// Get возвращает экзамен по ID
func (s *EvaluationService) Get(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error) {
	evaluation, err := s.evaluationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}
	return evaluation, nil
}

// buildVersions собирает версии из активных вопросов урока
func (s *EvaluationService) buildVersions(ctx context.Context, evaluation *entity.Evaluation) ([]entity.EvaluationVersion, error) {
	pool, err := s.questionRepo.FetchActiveByLesson(ctx, evaluation.LessonID)
	if err != nil {
		return nil, apperrors.Persistence("fetch lesson questions", err)
	}

	versions, err := s.generator.Generate(evaluation, examengine.QuestionIDs(pool))
	s.metrics.VersionsGenerated(err)
	if err != nil {
		s.log.Warn("Version generation failed",
			"evaluation_id", evaluation.ID, "lesson_id", evaluation.LessonID, "pool", len(pool), "error", err)
		return nil, err
	}
	return versions, nil
}

// replaceVersions сохраняет новые версии и сбрасывает кеш вопросов удалённых версий
func (s *EvaluationService) replaceVersions(ctx context.Context, evaluationID uuid.UUID, versions []entity.EvaluationVersion) error {
	old, err := s.versionRepo.ListByEvaluation(ctx, evaluationID)
	if err != nil {
		return apperrors.Persistence("list versions", err)
	}
	if err := s.versionRepo.ReplaceForEvaluation(ctx, evaluationID, versions); err != nil {
		return apperrors.Persistence("replace versions", err)
	}

	if s.cacheRepo != nil && len(old) > 0 {
		keys := make([]string, 0, len(old))
		for _, v := range old {
			keys = append(keys, versionQuestionsKey(v.ID))
		}
		if err := s.cacheRepo.Delete(ctx, keys...); err != nil {
			s.log.Warn("Failed to invalidate version question cache", "evaluation_id", evaluationID, "error", err)
		}
	}
	return nil
}

func (s *EvaluationService) recordGenerated(actor Actor, evaluation *entity.Evaluation, versions []entity.EvaluationVersion) {
	s.log.Info("Versions generated", "evaluation_id", evaluation.ID, "versions", len(versions))
	s.audit.Record(actor, AuditEntry{
		Action:      entity.AuditActionGenerateVersions,
		Entity:      "evaluation",
		EntityID:    evaluation.ID,
		Description: fmt.Sprintf("Сгенерировано версий: %d по %d вопросов", len(versions), evaluation.QuestionsPerExam),
		Payload: map[string]int{
			"version_count":      len(versions),
			"questions_per_exam": evaluation.QuestionsPerExam,
		},
	})
}

func applyInput(e *entity.Evaluation, in EvaluationInput) {
	e.LessonID = in.LessonID
	e.Title = strings.TrimSpace(in.Title)
	e.Description = strings.TrimSpace(in.Description)
	e.QuestionsPerExam = in.QuestionsPerExam
	e.VersionCount = in.VersionCount
	e.MaxAttempts = in.MaxAttempts
	if in.TimeLimitMinutes != nil {
		e.TimeLimitMinutes = in.TimeLimitMinutes
	}
	if in.PassingScore != nil {
		e.PassingScore = *in.PassingScore
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
}

func validateEvaluation(e *entity.Evaluation) error {
	if e.LessonID == uuid.Nil {
		return fmt.Errorf("%w: lesson is required", apperrors.ErrValidation)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if err := examengine.ValidateShape(e.QuestionsPerExam, e.VersionCount); err != nil {
		return err
	}
	if e.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts must not be negative", apperrors.ErrValidation)
	}
	if e.TimeLimitMinutes != nil && *e.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: time limit must not be negative", apperrors.ErrValidation)
	}
	if e.PassingScore < 0 || e.PassingScore > 100 {
		return fmt.Errorf("%w: passing score must be within [0, 100]", apperrors.ErrValidation)
	}
	return nil
}

func versionQuestionsKey(versionID uuid.UUID) string {
	return "version:questions:" + versionID.String()
}
