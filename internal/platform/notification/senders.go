package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const QueueName = "clinicdesk.notifications"

// AMQPSender publishes notifications as persistent JSON messages to a
// durable queue and waits for the broker to confirm each one.
type AMQPSender struct {
	mu    sync.Mutex
	ch    *amqp.Channel
	queue string
}

func NewAMQPSender(conn *amqp.Connection, queue string) (*AMQPSender, error) {
	if queue == "" {
		queue = QueueName
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return &AMQPSender{ch: ch, queue: queue}, nil
}

func (s *AMQPSender) Send(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dc, err := s.ch.PublishWithDeferredConfirmWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    n.CreatedAt,
		Type:         n.TemplateID,
		Body:         body,
		Headers:      amqp.Table{"channel": string(n.Channel)},
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return errors.New("notification nacked by broker")
	}
	return nil
}

func (s *AMQPSender) Close() error {
	return s.ch.Close()
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n *Notification) error {
	s.logger.Info().
		Str("notification_id", n.ID).
		Str("channel", string(n.Channel)).
		Str("recipient", n.Recipient).
		Str("template", n.TemplateID).
		Msg("notification not delivered: no broker configured")
	return nil
}

// RecordingSender keeps every notification in memory. Useful in tests.
type RecordingSender struct {
	mu   sync.Mutex
	sent []*Notification
	Err  error
}

func (s *RecordingSender) Send(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *RecordingSender) Sent() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Notification, len(s.sent))
	copy(out, s.sent)
	return out
}
