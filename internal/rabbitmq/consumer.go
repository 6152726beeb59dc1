package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
)

// consumerConcurrency ограничивает число одновременно обрабатываемых батчей.
const consumerConcurrency = 10

// ConsumerMessage запускает потребителя очереди напоминаний. Ошибка handler
// возвращает сообщение в очередь через nack с requeue.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string,
	handler func([]byte) error, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, consumerConcurrency)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(delivery.Body); err != nil {
						log.Error("failed to handle reminder batch", slog.Any("err", err))
						if nackErr := delivery.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", slog.Any("err", nackErr))
						}
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Error("failed to ack message", slog.Any("err", ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
