package service

import (
	"github.com/google/uuid"

	apperrors "github.com/yourusername/exam-engine-api/internal/pkg/errors"
)

// Роли пользователей, приходящие в JWT
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// Actor: инициатор запроса. Передаётся в каждый вызов явно, без глобального состояния.
type Actor struct {
	UserID uuid.UUID
	Role   string
	IP     string
}

// IsStaff сообщает, что актор: преподаватель или администратор
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleInstructor
}

// CanAccess разрешает доступ владельцу ресурса и персоналу
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.UserID == ownerID || a.IsStaff()
}

// RequireStaff возвращает ErrForbidden для студентов
func (a Actor) RequireStaff() error {
	if !a.IsStaff() {
		return apperrors.ErrForbidden
	}
	return nil
}
