package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/subtrackt/subtrackt/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) RemoveSubscription(ctx context.Context, id int, userEmail string) (int, error) {
	args := m.Called(ctx, id, userEmail)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ReadSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if sub, ok := args.Get(0).(*models.Subscription); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) UpdateSubscription(ctx context.Context, sub models.Subscription, id int) (int, error) {
	args := m.Called(ctx, sub, id)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListSubscriptions(ctx context.Context, userEmail string, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, userEmail, limit, offset)
	if subs, ok := args.Get(0).([]*models.Subscription); ok {
		return subs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CountMonthlySpend(ctx context.Context, userEmail string) (decimal.Decimal, error) {
	args := m.Called(ctx, userEmail)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreate(t *testing.T) {
	req := models.DummySubscription{
		Name:            "Netflix",
		Category:        "entertainment",
		Price:           15.99,
		RenewalDate:     "2026-10-01",
		ReminderEnabled: true,
		Timezone:        "Europe/Moscow",
	}

	tests := []struct {
		name       string
		req        models.DummySubscription
		mockSetup  func(repo *MockRepository, cache *MockCache)
		expectedID int
		wantErr    bool
	}{
		{
			name: "успех",
			req:  req,
			mockSetup: func(repo *MockRepository, cache *MockCache) {
				repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
					return sub.Name == "Netflix" && sub.UserEmail == "user@example.com" &&
						sub.Price.Equal(decimal.NewFromFloat(15.99))
				})).Return(7, nil)
				cache.On("Set", "subscription:7", mock.Anything, time.Hour).Return(nil)
			},
			expectedID: 7,
			wantErr:    false,
		},
		{
			name: "некорректная дата продления",
			req: models.DummySubscription{
				Name:        "Netflix",
				Category:    "entertainment",
				Price:       15.99,
				RenewalDate: "01.10.2026",
			},
			mockSetup: func(_ *MockRepository, _ *MockCache) {},
			wantErr:   true,
		},
		{
			name: "некорректный часовой пояс",
			req: models.DummySubscription{
				Name:        "Netflix",
				Category:    "entertainment",
				Price:       15.99,
				RenewalDate: "2026-10-01",
				Timezone:    "Mars/Olympus",
			},
			mockSetup: func(_ *MockRepository, _ *MockCache) {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			cache := new(MockCache)
			tt.mockSetup(repo, cache)

			svc := NewSubscriptionService(repo, cache, discardLogger())
			id, err := svc.Create(context.Background(), "user@example.com", tt.req)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, id)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestRead(t *testing.T) {
	sub := &models.Subscription{
		ID:        3,
		Name:      "Spotify",
		Price:     decimal.NewFromFloat(9.99),
		UserEmail: "user@example.com",
	}

	tests := []struct {
		name      string
		mockSetup func(repo *MockRepository, cache *MockCache)
	}{
		{
			name: "успех из кеша",
			mockSetup: func(repo *MockRepository, cache *MockCache) {
				cache.On("Get", "subscription:3", mock.Anything).Return(true, nil)
			},
		},
		{
			name: "успех из хранилища",
			mockSetup: func(repo *MockRepository, cache *MockCache) {
				cache.On("Get", "subscription:3", mock.Anything).Return(false, nil)
				repo.On("ReadSubscription", mock.Anything, 3).Return(sub, nil)
				cache.On("Set", "subscription:3", sub, time.Hour).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			cache := new(MockCache)
			tt.mockSetup(repo, cache)

			svc := NewSubscriptionService(repo, cache, discardLogger())
			_, err := svc.Read(context.Background(), 3)

			require.NoError(t, err)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestRemove(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	cache.On("Invalidate", "subscription:5").Return(nil)
	repo.On("RemoveSubscription", mock.Anything, 5, "user@example.com").Return(1, nil)

	svc := NewSubscriptionService(repo, cache, discardLogger())
	count, err := svc.Remove(context.Background(), 5, "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCountMonthlySpend(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	repo.On("CountMonthlySpend", mock.Anything, "user@example.com").
		Return(decimal.NewFromFloat(25.98), nil)

	svc := NewSubscriptionService(repo, cache, discardLogger())
	total, err := svc.CountMonthlySpend(context.Background(), "user@example.com")

	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromFloat(25.98)))
	repo.AssertExpectations(t)
}
