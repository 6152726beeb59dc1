// Package sender реализует отправку консолидированных писем-напоминаний:
// напрямую как Notifier движка напоминаний и как обработчик сообщений из очереди.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/subtrackt/subtrackt/internal/lib/sl"
	"github.com/subtrackt/subtrackt/internal/lib/smtp"
	"github.com/subtrackt/subtrackt/internal/models"
)

// SenderService отправляет письма-напоминания через SMTP транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр SenderService.
func New(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// DispatchBatch отправляет одному получателю единое письмо
// со всеми его подписками, продлевающимися завтра.
func (s *SenderService) DispatchBatch(ctx context.Context, batch models.ReminderBatch) error {
	const op = "services.sender.DispatchBatch"

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if len(batch.Subscriptions) == 0 {
		return fmt.Errorf("%s: empty batch for %s", op, batch.Recipient)
	}

	subject, body := renderReminder(batch)
	if err := s.sendEmail(batch.Recipient, subject, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("sent reminder email",
		slog.String("recipient", batch.Recipient),
		slog.Int("subscriptions", len(batch.Subscriptions)))
	return nil
}

// HandleQueuedBatch разбирает сообщение из очереди и отправляет письмо.
// Используется консьюмером RabbitMQ.
func (s *SenderService) HandleQueuedBatch(body []byte) error {
	const op = "services.sender.HandleQueuedBatch"

	var batch models.ReminderBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		s.log.Error("failed to unmarshal reminder batch", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.DispatchBatch(context.Background(), batch)
}

// renderReminder формирует тему и тело консолидированного письма.
func renderReminder(batch models.ReminderBatch) (string, string) {
	noun := "подписка продлевается"
	if len(batch.Subscriptions) > 1 {
		noun = "подписки продлеваются"
	}
	subject := fmt.Sprintf("Завтра %s: %d", noun, len(batch.Subscriptions))

	var sb strings.Builder
	sb.WriteString("Здравствуйте!\r\n\r\n")
	sb.WriteString("Завтра спишется оплата за следующие подписки:\r\n\r\n")
	for _, sub := range batch.Subscriptions {
		sb.WriteString(fmt.Sprintf("  - %s — %s\r\n", sub.Name, sub.Price.StringFixed(2)))
	}
	sb.WriteString(fmt.Sprintf("\r\nИтого к списанию: %s\r\n", batch.Total.StringFixed(2)))
	sb.WriteString("\r\nЕсли какая-то подписка больше не нужна, самое время её отменить.\r\n")
	return subject, sb.String()
}

// sendEmail отправляет письмо через SMTP транспорт.
func (s *SenderService) sendEmail(to, subject, body string) error {
	client, err := s.transport.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if err := client.Quit(); err != nil {
			s.log.Warn("failed to quit SMTP session", sl.Err(err))
		}
	}()

	from := s.transport.GetSMTPUser()
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		from, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}
