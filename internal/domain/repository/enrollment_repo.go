package repository

import (
	"context"

	"github.com/google/uuid"
)

// EnrollmentRepository: доступ к зачислениям на курсы
type EnrollmentRepository interface {
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	// ListCourseIDs возвращает курсы, на которые зачислен пользователь
	ListCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// ListUserIDs возвращает пользователей, зачисленных на курс
	ListUserIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)
}
