// Package services содержит бизнес-логику для управления подписками и кешированием.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subtrackt/subtrackt/internal/models"
)

// renewalDateLayout формат календарной даты продления в запросах API.
const renewalDateLayout = "2006-01-02"

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	// RemoveSubscription удаляет подписку пользователя по ID и возвращает количество удалённых записей.
	RemoveSubscription(ctx context.Context, id int, userEmail string) (int, error)
	// ReadSubscription возвращает подписку по ID.
	ReadSubscription(ctx context.Context, id int) (*models.Subscription, error)
	// UpdateSubscription обновляет данные подписки по ID.
	UpdateSubscription(ctx context.Context, sub models.Subscription, id int) (int, error)
	// ListSubscriptions возвращает список подписок пользователя с пагинацией.
	ListSubscriptions(ctx context.Context, userEmail string, limit, offset int) ([]*models.Subscription, error)
	// CountMonthlySpend возвращает сумму цен подписок пользователя.
	CountMonthlySpend(ctx context.Context, userEmail string) (decimal.Decimal, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками, включая кеширование.
type SubscriptionService struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create создает новую подписку для пользователя, кеширует её и возвращает ID.
func (s *SubscriptionService) Create(ctx context.Context, userEmail string, req models.DummySubscription) (int, error) {
	sub, err := s.buildSubscription(userEmail, req)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, err
	}

	s.log.Info("created new subscription", slog.Int("id", id))

	cacheKey := fmt.Sprintf("subscription:%d", id)
	if err := s.cache.Set(cacheKey, sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}

	return id, nil
}

// Remove удаляет подписку пользователя по ID и инвалидирует кеш.
func (s *SubscriptionService) Remove(ctx context.Context, id int, userEmail string) (int, error) {
	cacheKey := fmt.Sprintf("subscription:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	count, err := s.repo.RemoveSubscription(ctx, id, userEmail)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Read возвращает подписку по ID, используя кеш или репозиторий.
func (s *SubscriptionService) Read(ctx context.Context, id int) (*models.Subscription, error) {
	var result *models.Subscription
	cacheKey := fmt.Sprintf("subscription:%d", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}
	result, err = s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if result != nil {
		if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", cacheKey),
				slog.Any("err", err))
		}
	}
	return result, nil
}

// Update обновляет подписку и обновляет кеш.
func (s *SubscriptionService) Update(ctx context.Context, req models.DummySubscription, id int, userEmail string) (int, error) {
	sub, err := s.buildSubscription(userEmail, req)
	if err != nil {
		return 0, err
	}

	res, err := s.repo.UpdateSubscription(ctx, sub, id)
	if err != nil {
		return 0, err
	}
	s.log.Info("updated subscription in storage", slog.Int("id", id))

	cacheKey := fmt.Sprintf("subscription:%d", id)
	if err := s.cache.Set(cacheKey, sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return res, nil
}

// List возвращает подписки пользователя, упорядоченные по названию.
func (s *SubscriptionService) List(ctx context.Context, userEmail string, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptions(ctx, userEmail, limit, offset)
}

// CountMonthlySpend считает суммарные траты пользователя за один цикл продления.
func (s *SubscriptionService) CountMonthlySpend(ctx context.Context, userEmail string) (decimal.Decimal, error) {
	return s.repo.CountMonthlySpend(ctx, userEmail)
}

// buildSubscription валидирует и конвертирует DummySubscription в доменную модель.
func (s *SubscriptionService) buildSubscription(userEmail string, req models.DummySubscription) (models.Subscription, error) {
	renewalDate, err := time.Parse(renewalDateLayout, req.RenewalDate)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("invalid renewal date: %w", err)
	}

	price := decimal.NewFromFloat(req.Price)
	if price.IsNegative() {
		return models.Subscription{}, fmt.Errorf("price must not be negative")
	}

	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return models.Subscription{}, fmt.Errorf("invalid timezone: %w", err)
		}
	}

	return models.Subscription{
		Name:            req.Name,
		Category:        req.Category,
		Price:           price,
		RenewalDate:     renewalDate,
		ReminderEnabled: req.ReminderEnabled,
		Timezone:        req.Timezone,
		UserEmail:       userEmail,
	}, nil
}
