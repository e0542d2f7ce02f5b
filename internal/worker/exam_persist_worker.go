package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"myopiadx/internal/model"
)

// ExamStore persists drained exam audit records.
type ExamStore interface {
	Create(exam *model.Exam) error
}

// ackNack is the slice of amqp.Delivery the worker needs to settle a
// message.
type ackNack interface {
	Ack(multiple bool) error
	Nack(multiple bool, requeue bool) error
}

// ExamPersistWorker drains the exam queue and writes audit records to
// MySQL. Decode and persist failures are Nacked without requeue; a
// poisoned payload must not wedge the queue.
type ExamPersistWorker struct {
	conn      *amqp.Connection
	store     ExamStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExamPersistWorker(conn *amqp.Connection, store ExamStore, queueName string) *ExamPersistWorker {
	return &ExamPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
	}
}

func (w *ExamPersistWorker) Start(ctx context.Context) error {
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

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
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
				w.handleDelivery(d.Body, d)
			}
		}
	}()

	return nil
}

func (w *ExamPersistWorker) handleDelivery(body []byte, d ackNack) {
	var exam model.Exam
	if err := json.Unmarshal(body, &exam); err != nil {
		log.Printf("worker decode exam failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.store.Create(&exam); err != nil {
		log.Printf("worker persist exam failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *ExamPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
