package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/domain/repository"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// AuditService рассылает события аудита во все приёмники (БД, RabbitMQ).
// Запись выполняется в фоне: сбой аудита не откатывает основную операцию.
type AuditService struct {
	sinks   []repository.AuditSink
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewAuditService создает новый сервис аудита
func NewAuditService(timeout time.Duration, log *logger.Logger, sinks ...repository.AuditSink) *AuditService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuditService{
		sinks:   sinks,
		timeout: timeout,
		log:     log.With("component", "audit"),
	}
}

// AuditEntry: данные события аудита
type AuditEntry struct {
	Action      string
	Entity      string
	EntityID    uuid.UUID
	Description string
	Payload     interface{}
}

// Record отправляет событие во все приёмники без ожидания результата
func (s *AuditService) Record(actor Actor, entry AuditEntry) {
	event := &entity.AuditEvent{
		ID:          uuid.New(),
		Action:      entry.Action,
		Entity:      entry.Entity,
		Description: entry.Description,
		IP:          actor.IP,
		CreatedAt:   time.Now(),
	}
	if actor.UserID != uuid.Nil {
		userID := actor.UserID
		event.UserID = &userID
	}
	if entry.EntityID != uuid.Nil {
		entityID := entry.EntityID
		event.EntityID = &entityID
	}
	if entry.Payload != nil {
		if data, err := json.Marshal(entry.Payload); err == nil {
			event.Payload = data
		} else {
			s.log.Warn("Failed to marshal audit payload", "action", entry.Action, "error", err)
		}
	}

	for _, sink := range s.sinks {
		s.wg.Add(1)
		go func(sink repository.AuditSink) {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if err := sink.Record(ctx, event); err != nil {
				s.log.Error("Failed to record audit event", "action", event.Action, "event_id", event.ID, "error", err)
			}
		}(sink)
	}
}

// Wait дожидается завершения отправленных событий (graceful shutdown и тесты)
func (s *AuditService) Wait() {
	s.wg.Wait()
}
