package handler

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/service"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
)

type MockAuthoring struct {
	mock.Mock
}

func (m *MockAuthoring) Create(ctx context.Context, actor service.Actor, in service.EvaluationInput) (*service.AuthoredEvaluation, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthoredEvaluation), args.Error(1)
}

func (m *MockAuthoring) Update(ctx context.Context, actor service.Actor, id uuid.UUID, in service.EvaluationInput) (*service.AuthoredEvaluation, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthoredEvaluation), args.Error(1)
}

func (m *MockAuthoring) RegenerateVersions(ctx context.Context, actor service.Actor, id uuid.UUID) ([]entity.EvaluationVersion, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EvaluationVersion), args.Error(1)
}

func (m *MockAuthoring) ListVersions(ctx context.Context, actor service.Actor, id uuid.UUID) ([]entity.EvaluationVersion, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EvaluationVersion), args.Error(1)
}

type MockExamTaking struct {
	mock.Mock
}

func (m *MockExamTaking) Start(ctx context.Context, actor service.Actor, evaluationID uuid.UUID) (*service.StartedAttempt, error) {
	args := m.Called(ctx, actor, evaluationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StartedAttempt), args.Error(1)
}

func (m *MockExamTaking) AvailableForStudent(ctx context.Context, actor service.Actor) ([]service.AvailableEvaluation, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.AvailableEvaluation), args.Error(1)
}

func (m *MockExamTaking) Questions(ctx context.Context, actor service.Actor, attemptID uuid.UUID) ([]service.AttemptQuestion, error) {
	args := m.Called(ctx, actor, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.AttemptQuestion), args.Error(1)
}

func (m *MockExamTaking) RegisterAnswer(ctx context.Context, actor service.Actor, attemptID, questionID uuid.UUID, raw json.RawMessage) (*entity.Answer, error) {
	args := m.Called(ctx, actor, attemptID, questionID, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Answer), args.Error(1)
}

func (m *MockExamTaking) Detail(ctx context.Context, actor service.Actor, attemptID uuid.UUID) (*service.AttemptDetail, error) {
	args := m.Called(ctx, actor, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AttemptDetail), args.Error(1)
}

func (m *MockExamTaking) ListAttempts(ctx context.Context, actor service.Actor, filter entity.AttemptFilter) ([]entity.Attempt, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockExamTaking) Answers(ctx context.Context, actor service.Actor, attemptID uuid.UUID) ([]entity.Answer, error) {
	args := m.Called(ctx, actor, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Answer), args.Error(1)
}

type MockGrader struct {
	mock.Mock
}

func (m *MockGrader) Grade(ctx context.Context, actor service.Actor, attemptID uuid.UUID) (*service.GradeResult, error) {
	args := m.Called(ctx, actor, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GradeResult), args.Error(1)
}

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(ctx context.Context, actor service.Actor, evaluationID uuid.UUID) (*service.EvaluationReport, error) {
	args := m.Called(ctx, actor, evaluationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EvaluationReport), args.Error(1)
}

func (m *MockReporter) AttemptRows(ctx context.Context, actor service.Actor, filter entity.AttemptFilter) (*entity.Evaluation, []service.AttemptRow, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.Evaluation), args.Get(1).([]service.AttemptRow), args.Error(2)
}

type MockCertificates struct {
	mock.Mock
}

func (m *MockCertificates) Eligibility(ctx context.Context, actor service.Actor, courseID, userID uuid.UUID) (*examengine.Eligibility, error) {
	args := m.Called(ctx, actor, courseID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*examengine.Eligibility), args.Error(1)
}

func (m *MockCertificates) Issue(ctx context.Context, actor service.Actor, courseID, userID uuid.UUID) (*entity.Certificate, error) {
	args := m.Called(ctx, actor, courseID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Certificate), args.Error(1)
}

func (m *MockCertificates) ListPending(ctx context.Context, actor service.Actor, courseID uuid.UUID) ([]service.PendingCertificate, error) {
	args := m.Called(ctx, actor, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.PendingCertificate), args.Error(1)
}
