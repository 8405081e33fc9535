package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"laolaw-rag/internal/model"
)

var ErrPublishNacked = errors.New("broker rejected history message")

// HistoryPublisher enqueues answered questions for the persist worker. It keeps
// one confirm-mode channel and waits for the broker to take each message.
type HistoryPublisher struct {
	conn      *amqp.Connection
	queueName string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewHistoryPublisher(conn *amqp.Connection, queueName string) *HistoryPublisher {
	return &HistoryPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

// Publish returns once the broker has confirmed the message.
func (p *HistoryPublisher) Publish(ctx context.Context, entry model.QAHistory) error {
	msg, err := historyMessage(entry)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", p.queueName, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish history failed: %w", err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait history publish confirm failed: %w", err)
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// Close releases the publishing channel.
func (p *HistoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

// channel returns the open confirm-mode channel, reopening it after a channel
// level error closed it. Callers hold p.mu.
func (p *HistoryPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms failed: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func historyMessage(entry model.QAHistory) (amqp.Publishing, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal history payload failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
		Timestamp:    entry.CreatedAt,
		Type:         "qa.history",
	}, nil
}

// DeclareQueue declares the durable queue shared by publisher and worker.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return q, nil
}
