package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

const (
	folioPrefix = "AIFA"
	// 36^4: четыре символа base36
	folioSuffixSpace = 1679616
)

// PendingCertificate: студент, выполнивший условия, но ещё не получивший справку
type PendingCertificate struct {
	UserID    uuid.UUID `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	BestScore float64   `json:"best_score"`
}

// CertificateService проверяет право на справку и выдаёт справки
type CertificateService struct {
	evaluationRepo  repository.EvaluationRepository
	attemptRepo     repository.AttemptRepository
	enrollmentRepo  repository.EnrollmentRepository
	certificateRepo repository.CertificateRepository
	userRepo        repository.UserRepository
	audit           *AuditService
	rnd             *examengine.Random
	log             *logger.Logger
	now             func() time.Time
}

// NewCertificateService создает новый сервис справок
func NewCertificateService(
	evaluationRepo repository.EvaluationRepository,
	attemptRepo repository.AttemptRepository,
	enrollmentRepo repository.EnrollmentRepository,
	certificateRepo repository.CertificateRepository,
	userRepo repository.UserRepository,
	audit *AuditService,
	rnd *examengine.Random,
	log *logger.Logger,
) *CertificateService {
	if rnd == nil {
		rnd = examengine.NewRandom()
	}
	return &CertificateService{
		evaluationRepo:  evaluationRepo,
		attemptRepo:     attemptRepo,
		enrollmentRepo:  enrollmentRepo,
		certificateRepo: certificateRepo,
		userRepo:        userRepo,
		audit:           audit,
		rnd:             rnd,
		log:             log.With("component", "certificate_service"),
		now:             time.Now,
	}
}

// IsEligibleForCertificate сворачивает лучшие результаты пользователя по активным экзаменам курса
func (s *CertificateService) IsEligibleForCertificate(ctx context.Context, userID, courseID uuid.UUID) (*examengine.Eligibility, error) {
	evaluations, err := s.evaluationRepo.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, apperrors.Persistence("list course evaluations", err)
	}
	ids := make([]uuid.UUID, 0, len(evaluations))
	for _, e := range evaluations {
		ids = append(ids, e.ID)
	}
	attempts, err := s.attemptRepo.ListByUserAndEvaluations(ctx, userID, ids)
	if err != nil {
		return nil, apperrors.Persistence("list attempts", err)
	}

	eligibility := examengine.AggregateEligibility(evaluations, attempts)
	return &eligibility, nil
}

// Eligibility: проверка права на справку от имени актора: сам студент или персонал
func (s *CertificateService) Eligibility(ctx context.Context, actor Actor, courseID, userID uuid.UUID) (*examengine.Eligibility, error) {
	if !actor.CanAccess(userID) {
		return nil, apperrors.ErrForbidden
	}
	return s.IsEligibleForCertificate(ctx, userID, courseID)
}

// Issue выдаёт справку. Одна справка на пару (пользователь, курс).
func (s *CertificateService) Issue(ctx context.Context, actor Actor, courseID, userID uuid.UUID) (*entity.Certificate, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	existing, err := s.certificateRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Persistence("get certificate", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: folio %s", apperrors.ErrCertificateExists, existing.Folio)
	}

	eligibility, err := s.IsEligibleForCertificate(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, apperrors.ErrNotEligible
	}

	issuedAt := s.now()
	certificate := &entity.Certificate{
		ID:         uuid.New(),
		UserID:     userID,
		CourseID:   courseID,
		Folio:      s.folio(issuedAt, courseID, userID),
		FinalScore: *eligibility.BestScore,
		IssuedBy:   actor.UserID,
		IssuedAt:   issuedAt,
	}
	if err := s.certificateRepo.Create(ctx, certificate); err != nil {
		return nil, apperrors.Persistence("create certificate", err)
	}

	s.log.Info("Certificate issued", "folio", certificate.Folio, "user_id", userID, "course_id", courseID)
	s.audit.Record(actor, AuditEntry{
		Action:      entity.AuditActionIssueCertificate,
		Entity:      "certificate",
		EntityID:    certificate.ID,
		Description: fmt.Sprintf("Выдана справка %s", certificate.Folio),
		Payload: map[string]interface{}{
			"user_id":     userID,
			"course_id":   courseID,
			"final_score": certificate.FinalScore,
		},
	})
	return certificate, nil
}

// ListPending возвращает зачисленных студентов курса, имеющих право на справку, но без выданной справки
func (s *CertificateService) ListPending(ctx context.Context, actor Actor, courseID uuid.UUID) ([]PendingCertificate, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	enrolled, err := s.enrollmentRepo.ListUserIDs(ctx, courseID)
	if err != nil {
		return nil, apperrors.Persistence("list enrolled users", err)
	}
	issued, err := s.certificateRepo.ListUserIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, apperrors.Persistence("list issued certificates", err)
	}
	skip := make(map[uuid.UUID]struct{}, len(issued))
	for _, id := range issued {
		skip[id] = struct{}{}
	}

	scores := make(map[uuid.UUID]float64)
	eligibleIDs := make([]uuid.UUID, 0)
	for _, userID := range enrolled {
		if _, ok := skip[userID]; ok {
			continue
		}
		eligibility, err := s.IsEligibleForCertificate(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if eligibility.Eligible {
			eligibleIDs = append(eligibleIDs, userID)
			scores[userID] = *eligibility.BestScore
		}
	}
	if len(eligibleIDs) == 0 {
		return []PendingCertificate{}, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, eligibleIDs)
	if err != nil {
		return nil, apperrors.Persistence("get users", err)
	}
	byID := make(map[uuid.UUID]entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	pending := make([]PendingCertificate, 0, len(eligibleIDs))
	for _, id := range eligibleIDs {
		u := byID[id]
		pending = append(pending, PendingCertificate{
			UserID:    id,
			FullName:  u.FullName(),
			Email:     u.Email,
			BestScore: scores[id],
		})
	}
	return pending, nil
}

// folio формирует номер справки: AIFA-ГГГГММДД-КУРС6-ПОЛЬЗ6-СЛУЧ4
func (s *CertificateService) folio(issuedAt time.Time, courseID, userID uuid.UUID) string {
	suffix := strconv.FormatInt(int64(s.rnd.Intn(folioSuffixSpace)), 36)
	suffix = strings.Repeat("0", 4-len(suffix)) + suffix
	return strings.Join([]string{
		folioPrefix,
		issuedAt.Format("20060102"),
		strings.ToUpper(courseID.String()[:6]),
		strings.ToUpper(userID.String()[:6]),
		strings.ToUpper(suffix),
	}, "-")
}
