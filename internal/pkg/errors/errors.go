package errors

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния.
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки сборки и оценки экзаменов.
// Все они восстановимые: вызывающая сторона показывает сообщение и позволяет повторить действие.
var (
	// ErrInsufficientQuestions: в пуле урока меньше активных вопросов, чем требуется на экзамен.
	ErrInsufficientQuestions = errors.New("insufficient questions in lesson pool")

	// ErrNotEnrolled: пользователь не зачислен на курс экзамена.
	ErrNotEnrolled = errors.New("user is not enrolled in the course")

	// ErrInactiveEvaluation: экзамен выключен.
	ErrInactiveEvaluation = errors.New("evaluation is not active")

	// ErrAttemptInProgress: у пользователя уже есть незавершённая попытка.
	ErrAttemptInProgress = fmt.Errorf("%w: attempt already in progress", ErrConflict)

	// ErrAttemptsExhausted: лимит попыток исчерпан.
	ErrAttemptsExhausted = errors.New("maximum number of attempts reached")

	// ErrAlreadyGraded: попытка уже оценена, повторная оценка запрещена.
	ErrAlreadyGraded = fmt.Errorf("%w: attempt already graded", ErrConflict)

	// ErrVersionNotFound: у экзамена нет версий, которые можно назначить.
	ErrVersionNotFound = errors.New("no version available for evaluation")

	// ErrAttemptNotInProgress: попытка не принимает ответы.
	ErrAttemptNotInProgress = fmt.Errorf("%w: attempt is not in progress", ErrConflict)

	// ErrQuestionNotInVersion: вопрос не входит в назначенную версию.
	ErrQuestionNotInVersion = fmt.Errorf("%w: question does not belong to attempt version", ErrValidation)

	// ErrTimeLimitExceeded: ответ пришёл после крайнего срока (только в строгом режиме).
	ErrTimeLimitExceeded = errors.New("time limit exceeded")

	// ErrCertificateExists: справка для пары (пользователь, курс) уже выдана.
	ErrCertificateExists = fmt.Errorf("%w: certificate already issued", ErrConflict)

	// ErrNotEligible: пользователь не выполнил условия выдачи справки.
	ErrNotEligible = errors.New("user is not eligible for certificate")
)

// PersistenceError оборачивает любую ошибку хранилища.
// Частично выполненные многошаговые операции возвращают её как есть, без автоматического отката или повтора.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence оборачивает err в PersistenceError.
// Доменные ошибки и nil возвращаются без изменений.
func Persistence(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence сообщает, является ли ошибка ошибкой хранилища
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsDomain сообщает, относится ли ошибка к таксономии приложения
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrUnauthorized, ErrForbidden, ErrValidation, ErrConflict,
		ErrInsufficientQuestions, ErrNotEnrolled, ErrInactiveEvaluation,
		ErrAttemptsExhausted, ErrVersionNotFound, ErrTimeLimitExceeded, ErrNotEligible,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
