package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyPaymentRecorded = "payment.recorded"
	routingKeyContractSettled = "contract.settled"
	routingKeyContractOverdue = "contract.overdue"
	publisherAppID            = "lending-engine"
)

type EventPublisher interface {
	PublishPaymentRecorded(ctx context.Context, event PaymentRecordedEvent) error
	PublishContractSettled(ctx context.Context, event ContractSettledEvent) error
	PublishContractOverdue(ctx context.Context, event ContractOverdueEvent) error
}

type RabbitMQEventPublisher struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

func NewRabbitMQEventPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (EventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQEventPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQEventPublisher", "exchange", exchangeName),
	}, nil
}

func (p *RabbitMQEventPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logCtx.DebugContext(ctx, "Publishing message", "bodySize", len(body))

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			AppId:        publisherAppID,
		},
	)

	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully published message")
	return nil
}

func (p *RabbitMQEventPublisher) PublishPaymentRecorded(ctx context.Context, event PaymentRecordedEvent) error {
	return p.publish(ctx, routingKeyPaymentRecorded, event)
}

func (p *RabbitMQEventPublisher) PublishContractSettled(ctx context.Context, event ContractSettledEvent) error {
	return p.publish(ctx, routingKeyContractSettled, event)
}

func (p *RabbitMQEventPublisher) PublishContractOverdue(ctx context.Context, event ContractOverdueEvent) error {
	return p.publish(ctx, routingKeyContractOverdue, event)
}

// NoopPublisher is used when RabbitMQ is not configured; events are dropped
// after a debug log.
type NoopPublisher struct {
	Logger *slog.Logger
}

func (n NoopPublisher) PublishPaymentRecorded(ctx context.Context, event PaymentRecordedEvent) error {
	n.log(ctx, routingKeyPaymentRecorded)
	return nil
}

func (n NoopPublisher) PublishContractSettled(ctx context.Context, event ContractSettledEvent) error {
	n.log(ctx, routingKeyContractSettled)
	return nil
}

func (n NoopPublisher) PublishContractOverdue(ctx context.Context, event ContractOverdueEvent) error {
	n.log(ctx, routingKeyContractOverdue)
	return nil
}

func (n NoopPublisher) log(ctx context.Context, routingKey string) {
	if n.Logger != nil {
		n.Logger.DebugContext(ctx, "Event publisher not configured, dropping event", "routingKey", routingKey)
	}
}
