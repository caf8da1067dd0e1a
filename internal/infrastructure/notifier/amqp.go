package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iho/payledger/internal/domain"
)

// ErrPublisherClosed is returned by Notify after Close.
var ErrPublisherClosed = errors.New("amqp publisher is closed")

// Channel is the subset of *amqp.Channel the notifier publishes through.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes notifications to a RabbitMQ exchange.
type AMQPNotifier struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	ch         Channel
	exchange   string
	routingKey string
	closed     bool
}

// DialAMQP connects to the broker and declares a durable topic exchange.
func DialAMQP(url, exchange, routingKey string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	n := NewAMQPNotifier(ch, exchange, routingKey)
	n.conn = conn
	return n, nil
}

// NewAMQPNotifier publishes through an already opened channel.
func NewAMQPNotifier(ch Channel, exchange, routingKey string) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, exchange: exchange, routingKey: routingKey}
}

// Notify publishes the notification as a persistent JSON message.
func (n *AMQPNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	payload, err := encode(notification)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrPublisherClosed
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    notification.ID,
		Type:         notification.EventType,
		Timestamp:    notification.CreatedAt,
		Headers: amqp.Table{
			"tenant_id": notification.TenantID,
		},
		Body: payload,
	}

	if err := n.ch.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s/%s: %w", n.exchange, n.routingKey, err)
	}

	return nil
}

// Close closes the channel and, when dialed, the connection.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	err := n.ch.Close()
	if n.conn != nil {
		err = errors.Join(err, n.conn.Close())
	}
	return err
}
