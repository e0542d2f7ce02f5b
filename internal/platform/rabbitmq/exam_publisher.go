package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"myopiadx/internal/model"
)

// ExamPublisher enqueues completed screening exams for asynchronous
// persistence. The queue is durable and messages are persistent so a
// broker restart does not lose audit records.
type ExamPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewExamPublisher(conn *amqp.Connection, queueName string) *ExamPublisher {
	return &ExamPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ExamPublisher) Publish(ctx context.Context, exam model.Exam) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish exam failed: %w", err)
	}
	return nil
}
