package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/config"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

// ViewEvent is published after a view has been committed.
type ViewEvent struct {
	ID         uuid.UUID `json:"id"`
	VideoID    uuid.UUID `json:"videoId"`
	UserID     uuid.UUID `json:"userId"`
	ViewedAt   time.Time `json:"viewedAt"`
	TotalViews int64     `json:"totalViews"`
	ViewCount  int64     `json:"viewCount"`
}

// EventPublisher delivers view events to downstream consumers.
type EventPublisher interface {
	PublishViewEvent(ctx context.Context, event *ViewEvent) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishViewEvent(context.Context, *ViewEvent) error { return nil }

// MessagePublisher publishes view events to a RabbitMQ topic exchange with
// publisher confirms.
type MessagePublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	mu      sync.RWMutex
}

// NewMessagePublisher connects and declares the exchange, queue and binding.
func NewMessagePublisher(cfg *config.RabbitMQConfig) (*MessagePublisher, error) {
	mp := &MessagePublisher{
		config: cfg,
	}

	if err := mp.connect(); err != nil {
		return nil, err
	}

	return mp, nil
}

func (mp *MessagePublisher) connect() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	conn, err := amqp.Dial(mp.config.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		mp.config.Exchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		mp.config.Queue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		amqp.Table{
			"x-message-ttl": 86400000, // 24 hours
			"x-max-length":  100000,
		},
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(
		mp.config.Queue,      // queue name
		mp.config.RoutingKey, // routing key
		mp.config.Exchange,   // exchange
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	mp.conn = conn
	mp.channel = ch

	logger.L().Info("Connected to RabbitMQ",
		zap.String("exchange", mp.config.Exchange),
		zap.String("queue", mp.config.Queue),
	)

	return nil
}

// PublishViewEvent publishes event and waits for the broker to confirm it.
func (mp *MessagePublisher) PublishViewEvent(ctx context.Context, event *ViewEvent) error {
	// Write lock: confirms are delivered in publish order per channel, so
	// only one publish may wait on the channel at a time.
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	confirmation, err := mp.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		mp.config.Exchange,   // exchange
		mp.config.RoutingKey, // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.ViewedAt,
			MessageId:    event.ID.String(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("timeout waiting for publish confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("message was not acknowledged by broker")
	}

	logger.L().Debug("Published view event",
		zap.String("eventId", event.ID.String()),
		zap.String("routingKey", mp.config.RoutingKey),
	)

	return nil
}

// Close closes the channel and connection.
func (mp *MessagePublisher) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var errs []error
	if mp.channel != nil {
		if err := mp.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if mp.conn != nil {
		if err := mp.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	logger.L().Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the connection and channel are open.
func (mp *MessagePublisher) IsHealthy() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.conn != nil && !mp.conn.IsClosed() && mp.channel != nil
}
