package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/subtrackt/subtrackt/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// BatchPublisher отправляет батчи напоминаний в очередь вместо прямой
// отправки по SMTP. Используется standalone-планировщиком.
type BatchPublisher struct {
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

// NewBatchPublisher создает новый экземпляр BatchPublisher.
func NewBatchPublisher(ch *amqp.Channel) *BatchPublisher {
	return &BatchPublisher{
		ch:         ch,
		exchange:   RemindersExchange,
		routingKey: DueRoutingKey,
	}
}

// DispatchBatch публикует батч одного получателя в exchange напоминаний.
func (p *BatchPublisher) DispatchBatch(ctx context.Context, batch models.ReminderBatch) error {
	const op = "rabbitmq.DispatchBatch"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	return PublishMessage(p.ch, p.exchange, p.routingKey, batch)
}
