package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// AuditMessage: тело сообщения аудита в обменнике
type AuditMessage struct {
	ID          string          `json:"id"`
	Action      string          `json:"action"`
	UserID      string          `json:"user_id,omitempty"`
	Entity      string          `json:"entity,omitempty"`
	EntityID    string          `json:"entity_id,omitempty"`
	Description string          `json:"description"`
	IP          string          `json:"ip,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewAuditMessage строит сообщение из события аудита
func NewAuditMessage(e *entity.AuditEvent) AuditMessage {
	msg := AuditMessage{
		ID:          e.ID.String(),
		Action:      e.Action,
		Entity:      e.Entity,
		Description: e.Description,
		IP:          e.IP,
		OccurredAt:  e.CreatedAt,
	}
	if e.UserID != nil {
		msg.UserID = e.UserID.String()
	}
	if e.EntityID != nil {
		msg.EntityID = e.EntityID.String()
	}
	if len(e.Payload) > 0 {
		msg.Payload = json.RawMessage(e.Payload)
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now()
	}
	return msg
}

// AuditPublisher публикует события аудита в topic-обменник RabbitMQ.
// Реализует repository.AuditSink.
type AuditPublisher struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
	enabled    bool
	mu         sync.Mutex
	log        *logger.Logger
}

// NewAuditPublisher подключается к RabbitMQ. Пустой URI отключает публикацию.
func NewAuditPublisher(uri, exchange, routingKey string, log *logger.Logger) (*AuditPublisher, error) {
	p := &AuditPublisher{
		exchange:   exchange,
		routingKey: routingKey,
		log:        log.With("component", "audit_publisher"),
	}
	if uri == "" {
		p.log.Warn("RabbitMQ URI is empty, audit publishing is disabled")
		return p, nil
	}

	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = channel
	p.enabled = true
	p.log.Info("Audit publisher initialized", "exchange", exchange)
	return p, nil
}

// Enabled сообщает, подключён ли публикатор
func (p *AuditPublisher) Enabled() bool {
	return p.enabled
}

// Record публикует событие аудита
func (p *AuditPublisher) Record(ctx context.Context, e *entity.AuditEvent) error {
	if !p.enabled {
		return nil
	}

	body, err := json.Marshal(NewAuditMessage(e))
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	routingKey := p.routingKey + "." + e.Action

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			MessageId:    e.ID.String(),
			Body:         body,
			Headers: amqp091.Table{
				"action": e.Action,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	return nil
}

// Close закрывает канал и соединение
func (p *AuditPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("Error closing RabbitMQ channel", "error", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
