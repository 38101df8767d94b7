package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
)

const bucketWidth = 10

// ScoreBucket: интервал распределения оценок
type ScoreBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// EvaluationReport: сводная статистика экзамена по завершённым попыткам
type EvaluationReport struct {
	EvaluationID           uuid.UUID     `json:"evaluation_id"`
	Title                  string        `json:"title"`
	PassingScore           float64       `json:"passing_score"`
	TotalAttempts          int           `json:"total_attempts"`
	Students               int           `json:"students"`
	AverageScore           float64       `json:"average_score"`
	Passed                 int           `json:"passed"`
	Failed                 int           `json:"failed"`
	Distribution           []ScoreBucket `json:"distribution"`
	AttemptsPerStudent     float64       `json:"attempts_per_student"`
	AverageDurationSeconds float64       `json:"average_duration_seconds"`
}

// AttemptRow: строка выгрузки попыток
type AttemptRow struct {
	AttemptID     uuid.UUID
	StudentName   string
	Email         string
	AttemptNumber int
	State         entity.AttemptState
	StartedAt     time.Time
	FinishedAt    *time.Time
	Score         *float64
	Passed        *bool
	Duration      time.Duration
}

// ReportService строит отчёты преподавателя
type ReportService struct {
	evaluationRepo repository.EvaluationRepository
	attemptRepo    repository.AttemptRepository
	userRepo       repository.UserRepository
}

// NewReportService создает новый сервис отчётов
func NewReportService(
	evaluationRepo repository.EvaluationRepository,
	attemptRepo repository.AttemptRepository,
	userRepo repository.UserRepository,
) *ReportService {
	return &ReportService{
		evaluationRepo: evaluationRepo,
		attemptRepo:    attemptRepo,
		userRepo:       userRepo,
	}
}

// Report возвращает сводную статистику экзамена
func (s *ReportService) Report(ctx context.Context, actor Actor, evaluationID uuid.UUID) (*EvaluationReport, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}
	evaluation, err := s.evaluationRepo.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, apperrors.Persistence("get evaluation", err)
	}
	attempts, err := s.attemptRepo.ListTerminatedByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, apperrors.Persistence("list attempts", err)
	}

	report := BuildReport(evaluation, attempts)
	return &report, nil
}

// BuildReport считает статистику по завершённым попыткам
func BuildReport(evaluation *entity.Evaluation, attempts []entity.Attempt) EvaluationReport {
	report := EvaluationReport{
		EvaluationID: evaluation.ID,
		Title:        evaluation.Title,
		PassingScore: evaluation.PassingScore,
		Distribution: emptyDistribution(),
	}

	students := make(map[uuid.UUID]struct{})
	var scoreSum float64
	var durationSum time.Duration
	durations := 0
	for _, a := range attempts {
		if !a.IsTerminated() {
			continue
		}
		report.TotalAttempts++
		students[a.UserID] = struct{}{}

		score := a.ScoreValue()
		scoreSum += score
		report.Distribution[bucketIndex(score)].Count++

		if a.Passed != nil && *a.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		if d, ok := a.Duration(); ok {
			durationSum += d
			durations++
		}
	}

	report.Students = len(students)
	if report.TotalAttempts > 0 {
		report.AverageScore = examengine.Round2(scoreSum / float64(report.TotalAttempts))
		report.AttemptsPerStudent = examengine.Round2(float64(report.TotalAttempts) / float64(report.Students))
	}
	if durations > 0 {
		report.AverageDurationSeconds = examengine.Round2(durationSum.Seconds() / float64(durations))
	}
	return report
}

// AttemptRows возвращает попытки экзамена по фильтру с данными студентов
func (s *ReportService) AttemptRows(ctx context.Context, actor Actor, filter entity.AttemptFilter) (*entity.Evaluation, []AttemptRow, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, nil, err
	}
	evaluation, err := s.evaluationRepo.GetByID(ctx, filter.EvaluationID)
	if err != nil {
		return nil, nil, apperrors.Persistence("get evaluation", err)
	}
	attempts, err := s.attemptRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, apperrors.Persistence("list attempts", err)
	}

	seen := make(map[uuid.UUID]struct{})
	userIDs := make([]uuid.UUID, 0)
	for _, a := range attempts {
		if _, ok := seen[a.UserID]; !ok {
			seen[a.UserID] = struct{}{}
			userIDs = append(userIDs, a.UserID)
		}
	}
	users := make(map[uuid.UUID]entity.User, len(userIDs))
	if len(userIDs) > 0 {
		list, err := s.userRepo.GetByIDs(ctx, userIDs)
		if err != nil {
			return nil, nil, apperrors.Persistence("get users", err)
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}

	rows := make([]AttemptRow, 0, len(attempts))
	for _, a := range attempts {
		u := users[a.UserID]
		row := AttemptRow{
			AttemptID:     a.ID,
			StudentName:   u.FullName(),
			Email:         u.Email,
			AttemptNumber: a.AttemptNumber,
			State:         a.State,
			StartedAt:     a.StartedAt,
			FinishedAt:    a.FinishedAt,
			Score:         a.Score,
			Passed:        a.Passed,
		}
		if d, ok := a.Duration(); ok {
			row.Duration = d
		}
		rows = append(rows, row)
	}
	return evaluation, rows, nil
}

// emptyDistribution возвращает интервалы "0-9" … "100-109"
func emptyDistribution() []ScoreBucket {
	buckets := make([]ScoreBucket, 0, 100/bucketWidth+1)
	for lo := 0; lo <= 100; lo += bucketWidth {
		buckets = append(buckets, ScoreBucket{Range: fmt.Sprintf("%d-%d", lo, lo+bucketWidth-1)})
	}
	return buckets
}

func bucketIndex(score float64) int {
	idx := int(score) / bucketWidth
	if idx < 0 {
		return 0
	}
	if idx > 100/bucketWidth {
		return 100 / bucketWidth
	}
	return idx
}
