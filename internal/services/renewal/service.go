package renewal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackt/subtrackt/internal/lib/clockwork"
	"github.com/subtrackt/subtrackt/internal/lib/sl"
	"github.com/subtrackt/subtrackt/internal/metrics"
	"github.com/subtrackt/subtrackt/internal/models"
)

// defaultDispatchWorkers ограничивает параллельную отправку батчей,
// чтобы не упереться в лимиты почтового транспорта.
const defaultDispatchWorkers = 10

// SubscriptionRepository определяет методы хранилища, нужные движку напоминаний.
type SubscriptionRepository interface {
	// ListReminderEligible возвращает подписки с включенными напоминаниями.
	ListReminderEligible(ctx context.Context) ([]*models.Subscription, error)
	// ListExpiredRenewals возвращает подписки с датой продления раньше before.
	ListExpiredRenewals(ctx context.Context, before time.Time) ([]*models.Subscription, error)
	// UpdateRenewalDate переносит дату продления подписки.
	UpdateRenewalDate(ctx context.Context, id int, newDate time.Time) (int, error)
}

// Notifier доставляет батч напоминаний одному получателю.
type Notifier interface {
	DispatchBatch(ctx context.Context, batch models.ReminderBatch) error
}

// ReminderItem описывает одну подписку в квитанции об отправке.
type ReminderItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ReminderReceipt фиксирует отправленный батч одного получателя.
type ReminderReceipt struct {
	Email             string         `json:"email"`
	SubscriptionCount int            `json:"subscriptionCount"`
	Subscriptions     []ReminderItem `json:"subscriptions"`
}

// RenewalUpdate фиксирует перенос даты продления одной подписки.
type RenewalUpdate struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	OldRenewalDate string `json:"oldRenewalDate"`
	NewRenewalDate string `json:"newRenewalDate"`
	UserEmail      string `json:"userEmail"`
}

// CycleError описывает локально восстановленную ошибку цикла:
// неудачную отправку получателю или неудачный перенос даты.
type CycleError struct {
	Email string `json:"email,omitempty"`
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

// CycleSummary итог одного цикла напоминаний, возвращаемый внешнему триггеру.
type CycleSummary struct {
	RunID           string            `json:"runId"`
	RemindersSent   []ReminderReceipt `json:"remindersSent"`
	UpdatedRenewals []RenewalUpdate   `json:"updatedRenewals"`
	Errors          []CycleError      `json:"errors"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Service выполняет один цикл напоминаний: отбор due-подписок с отправкой
// батчей и независимый перенос просроченных дат продления.
type Service struct {
	repo     SubscriptionRepository
	notifier Notifier
	clock    clockwork.Clock
	log      *slog.Logger
	workers  int
}

// New создает новый экземпляр Service. workers <= 0 включает значение по умолчанию.
func New(repo SubscriptionRepository, notifier Notifier, clock clockwork.Clock, log *slog.Logger, workers int) *Service {
	if workers <= 0 {
		workers = defaultDispatchWorkers
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		clock:    clock,
		log:      log,
		workers:  workers,
	}
}

// RunCycle выполняет полный цикл. Ошибки чтения из хранилища фатальны для
// цикла; ошибки отправки и построчные ошибки переноса фиксируются в summary
// и не прерывают остальных получателей.
func (s *Service) RunCycle(ctx context.Context) (*CycleSummary, error) {
	const op = "renewal.RunCycle"

	summary := &CycleSummary{
		RunID:           uuid.NewString(),
		RemindersSent:   []ReminderReceipt{},
		UpdatedRenewals: []RenewalUpdate{},
		Errors:          []CycleError{},
	}
	now := s.clock.Now()

	s.log.Info("starting reminder cycle", slog.String("run_id", summary.RunID))

	if err := s.runReminderPass(ctx, now, summary); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.runRolloverPass(ctx, now, summary); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summary.Timestamp = s.clock.Now().UTC()
	s.log.Info("reminder cycle finished",
		slog.String("run_id", summary.RunID),
		slog.Int("reminders_sent", len(summary.RemindersSent)),
		slog.Int("renewals_updated", len(summary.UpdatedRenewals)),
		slog.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (s *Service) runReminderPass(ctx context.Context, now time.Time, summary *CycleSummary) error {
	subs, err := s.repo.ListReminderEligible(ctx)
	if err != nil {
		s.log.Error("failed to list reminder eligible subscriptions", sl.Err(err))
		return err
	}

	var due []*models.Subscription
	for _, sub := range subs {
		if _, ok := ResolveLocation(sub.Timezone); !ok && sub.Timezone != "" {
			s.log.Warn("invalid timezone, falling back to UTC",
				slog.Int("id", sub.ID), slog.String("timezone", sub.Timezone))
		}
		if IsDueTomorrow(now, sub) {
			due = append(due, sub)
		}
	}
	if len(due) == 0 {
		s.log.Info("no subscriptions due tomorrow")
		return nil
	}

	batches := BuildBatches(due)
	s.log.Info("found subscriptions due tomorrow",
		slog.Int("subscriptions", len(due)), slog.Int("recipients", len(batches)))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for _, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(b models.ReminderBatch) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.notifier.DispatchBatch(ctx, b); err != nil {
				metrics.DispatchErrors.Inc()
				s.log.Error("failed to dispatch reminder batch",
					slog.String("recipient", b.Recipient), sl.Err(err))
				mu.Lock()
				summary.Errors = append(summary.Errors, CycleError{
					Email: b.Recipient,
					Error: err.Error(),
				})
				mu.Unlock()
				return
			}

			metrics.RemindersSent.Add(float64(len(b.Subscriptions)))
			receipt := ReminderReceipt{
				Email:             b.Recipient,
				SubscriptionCount: len(b.Subscriptions),
			}
			for _, sub := range b.Subscriptions {
				receipt.Subscriptions = append(receipt.Subscriptions, ReminderItem{ID: sub.ID, Name: sub.Name})
			}
			mu.Lock()
			summary.RemindersSent = append(summary.RemindersSent, receipt)
			mu.Unlock()
		}(batch)
	}
	wg.Wait()

	sort.Slice(summary.RemindersSent, func(i, j int) bool {
		return summary.RemindersSent[i].Email < summary.RemindersSent[j].Email
	})
	return nil
}

func (s *Service) runRolloverPass(ctx context.Context, now time.Time, summary *CycleSummary) error {
	// Граница берется с запасом в день вперед от даты UTC: в timezone
	// впереди UTC локальное "сегодня" может опережать дату базы данных.
	// Точную проверку по timezone подписки делает NextRenewalDate ниже.
	cutoff := LocalDate(now, time.UTC).AddDate(0, 0, 1)
	expired, err := s.repo.ListExpiredRenewals(ctx, cutoff)
	if err != nil {
		s.log.Error("failed to list expired renewals", sl.Err(err))
		return err
	}
	if len(expired) == 0 {
		s.log.Info("no expired renewal dates found")
		return nil
	}
	s.log.Info("found expired renewal dates", slog.Int("count", len(expired)))

	for _, sub := range expired {
		loc, ok := ResolveLocation(sub.Timezone)
		if !ok && sub.Timezone != "" {
			s.log.Warn("invalid timezone, falling back to UTC",
				slog.Int("id", sub.ID), slog.String("timezone", sub.Timezone))
		}
		today := LocalDate(now, loc)

		next, err := NextRenewalDate(sub.RenewalDate, today)
		if err != nil {
			s.log.Warn("skipping subscription with invalid renewal date",
				slog.Int("id", sub.ID), sl.Err(err))
			summary.Errors = append(summary.Errors, CycleError{
				ID:    sub.ID,
				Name:  sub.Name,
				Error: err.Error(),
			})
			continue
		}
		if next.Equal(dateOnly(sub.RenewalDate)) {
			// В timezone подписки дата еще не просрочена.
			continue
		}

		if _, err := s.repo.UpdateRenewalDate(ctx, sub.ID, next); err != nil {
			s.log.Error("failed to update renewal date",
				slog.Int("id", sub.ID), sl.Err(err))
			summary.Errors = append(summary.Errors, CycleError{
				ID:    sub.ID,
				Name:  sub.Name,
				Error: err.Error(),
			})
			continue
		}

		metrics.RenewalRollovers.Inc()
		summary.UpdatedRenewals = append(summary.UpdatedRenewals, RenewalUpdate{
			ID:             sub.ID,
			Name:           sub.Name,
			OldRenewalDate: dateOnly(sub.RenewalDate).Format("2006-01-02"),
			NewRenewalDate: next.Format("2006-01-02"),
			UserEmail:      sub.UserEmail,
		})
	}
	return nil
}
