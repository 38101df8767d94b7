package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// ResultNotice: данные письма о результате экзамена
type ResultNotice struct {
	AttemptID       string
	Email           string
	StudentName     string
	EvaluationTitle string
	Score           float64
	PassingScore    float64
	Passed          bool
}

// ResultNotifier отправляет студенту письмо с результатом экзамена.
type ResultNotifier interface {
	NotifyResult(ctx context.Context, notice ResultNotice) error
}

// NoopResultNotifier используется, когда уведомления отключены.
type NoopResultNotifier struct {
	log *logger.Logger
}

// NewNoopResultNotifier создает заглушку уведомлений
func NewNoopResultNotifier(log *logger.Logger) *NoopResultNotifier {
	return &NoopResultNotifier{log: log}
}

func (s *NoopResultNotifier) NotifyResult(ctx context.Context, notice ResultNotice) error {
	s.log.Debug("Result notification skipped", "attempt_id", notice.AttemptID, "passed", notice.Passed)
	return nil
}

// ResendResultNotifier отправляет письма через Resend REST API.
type ResendResultNotifier struct {
	from   string
	client *resend.Client
}

func NewResendResultNotifier(apiKey, from string) (*ResendResultNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendResultNotifier{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendResultNotifier) NotifyResult(ctx context.Context, notice ResultNotice) error {
	if notice.Email == "" {
		return fmt.Errorf("recipient email is required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{notice.Email},
		Subject: resultSubject(notice),
		Text:    resultText(notice),
		Html:    resultHTML(notice),
	}

	// Одна попытка экзамена: одно письмо, даже при повторной отправке
	options := &resend.SendEmailOptions{IdempotencyKey: "exam-result-" + notice.AttemptID}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resultSubject(n ResultNotice) string {
	if n.Passed {
		return fmt.Sprintf("Экзамен «%s» сдан", n.EvaluationTitle)
	}
	return fmt.Sprintf("Результат экзамена «%s»", n.EvaluationTitle)
}

func resultText(n ResultNotice) string {
	verdict := "не сдан"
	if n.Passed {
		verdict = "сдан"
	}
	return fmt.Sprintf("%s, ваш результат: %.2f (проходной балл %.2f). Экзамен %s.",
		n.StudentName, n.Score, n.PassingScore, verdict)
}

func resultHTML(n ResultNotice) string {
	return fmt.Sprintf("<p>%s</p>", resultText(n))
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
