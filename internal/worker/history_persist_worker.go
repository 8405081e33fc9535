package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"laolaw-rag/internal/model"
	"laolaw-rag/internal/platform/rabbitmq"
)

const (
	storeTimeout      = 10 * time.Second
	defaultRetryDelay = time.Second
)

var errUndecodable = errors.New("decode history failed")

// HistoryStore persists one history entry.
type HistoryStore interface {
	Create(ctx context.Context, entry *model.QAHistory) error
}

// HistoryInvalidator is told when persisted history changed.
type HistoryInvalidator interface {
	Invalidate(ctx context.Context) error
}

// HistoryPersistWorker consumes answered questions from RabbitMQ and writes
// them to the history store.
type HistoryPersistWorker struct {
	conn        *amqp.Connection
	store       HistoryStore
	invalidator HistoryInvalidator
	queueName   string
	retryDelay  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHistoryPersistWorker(conn *amqp.Connection, store HistoryStore, invalidator HistoryInvalidator, queueName string) *HistoryPersistWorker {
	return &HistoryPersistWorker{
		conn:        conn,
		store:       store,
		invalidator: invalidator,
		queueName:   queueName,
		retryDelay:  defaultRetryDelay,
	}
}

func (w *HistoryPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.process(workerCtx, d, d.Body)
			}
		}
	}()

	return nil
}

// acknowledger settles one delivery; amqp.Delivery implements it.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// process stores body and settles the delivery. Messages that cannot be
// decoded are dropped; store failures are requeued after retryDelay.
func (w *HistoryPersistWorker) process(ctx context.Context, d acknowledger, body []byte) {
	err := w.handle(ctx, body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errUndecodable):
		log.Printf("worker drop history message failed: %v", err)
		_ = d.Nack(false, false)
	default:
		log.Printf("worker persist history failed, requeueing: %v", err)
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
		_ = d.Nack(false, true)
	}
}

// handle decodes and stores one delivery body. The write runs detached from
// ctx so shutting the worker down does not abort an insert halfway.
func (w *HistoryPersistWorker) handle(ctx context.Context, body []byte) error {
	var entry model.QAHistory
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("%w: %w", errUndecodable, err)
	}
	entry.ID = 0

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := w.store.Create(storeCtx, &entry); err != nil {
		return err
	}
	if w.invalidator != nil {
		if err := w.invalidator.Invalidate(storeCtx); err != nil {
			log.Printf("invalidate history cache failed: %v", err)
		}
	}
	return nil
}

func (w *HistoryPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
