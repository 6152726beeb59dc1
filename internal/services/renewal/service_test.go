package renewal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/subtrackt/subtrackt/internal/lib/clockwork"
	"github.com/subtrackt/subtrackt/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListReminderEligible(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockRepository) ListExpiredRenewals(ctx context.Context, before time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockRepository) UpdateRenewalDate(ctx context.Context, id int, newDate time.Time) (int, error) {
	args := m.Called(ctx, id, newDate)
	return args.Int(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) DispatchBatch(ctx context.Context, batch models.ReminderBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_RunCycle(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := clockwork.FakeClock{Current: now}

	dueSub := &models.Subscription{
		ID:              1,
		Name:            "Netflix",
		Price:           decimal.RequireFromString("9.99"),
		RenewalDate:     date(2024, 3, 15),
		ReminderEnabled: true,
		Timezone:        "UTC",
		UserEmail:       "u@x.com",
	}
	notDueSub := &models.Subscription{
		ID:              2,
		Name:            "Spotify",
		Price:           decimal.RequireFromString("4.99"),
		RenewalDate:     date(2024, 4, 20),
		ReminderEnabled: true,
		Timezone:        "UTC",
		UserEmail:       "u@x.com",
	}
	expiredSub := &models.Subscription{
		ID:              3,
		Name:            "iCloud",
		Price:           decimal.RequireFromString("2.99"),
		RenewalDate:     date(2024, 1, 15),
		ReminderEnabled: true,
		Timezone:        "UTC",
		UserEmail:       "v@x.com",
	}

	tests := []struct {
		name       string
		setupMocks func(*MockRepository, *MockNotifier)
		wantErr    bool
		check      func(*testing.T, *CycleSummary)
	}{
		{
			name: "успех - одна подписка due, одна просрочена",
			setupMocks: func(r *MockRepository, n *MockNotifier) {
				r.On("ListReminderEligible", mock.Anything).
					Return([]*models.Subscription{dueSub, notDueSub}, nil).Once()
				n.On("DispatchBatch", mock.Anything, mock.MatchedBy(func(b models.ReminderBatch) bool {
					return b.Recipient == "u@x.com" && len(b.Subscriptions) == 1
				})).Return(nil).Once()
				r.On("ListExpiredRenewals", mock.Anything, mock.Anything).
					Return([]*models.Subscription{expiredSub}, nil).Once()
				r.On("UpdateRenewalDate", mock.Anything, 3, date(2024, 3, 15)).
					Return(1, nil).Once()
			},
			check: func(t *testing.T, s *CycleSummary) {
				require.Len(t, s.RemindersSent, 1)
				assert.Equal(t, "u@x.com", s.RemindersSent[0].Email)
				assert.Equal(t, 1, s.RemindersSent[0].SubscriptionCount)
				require.Len(t, s.UpdatedRenewals, 1)
				assert.Equal(t, "2024-01-15", s.UpdatedRenewals[0].OldRenewalDate)
				assert.Equal(t, "2024-03-15", s.UpdatedRenewals[0].NewRenewalDate)
				assert.Empty(t, s.Errors)
			},
		},
		{
			name: "ошибка отправки не прерывает цикл",
			setupMocks: func(r *MockRepository, n *MockNotifier) {
				r.On("ListReminderEligible", mock.Anything).
					Return([]*models.Subscription{dueSub}, nil).Once()
				n.On("DispatchBatch", mock.Anything, mock.Anything).
					Return(errors.New("smtp unavailable")).Once()
				r.On("ListExpiredRenewals", mock.Anything, mock.Anything).
					Return([]*models.Subscription{}, nil).Once()
			},
			check: func(t *testing.T, s *CycleSummary) {
				assert.Empty(t, s.RemindersSent)
				require.Len(t, s.Errors, 1)
				assert.Equal(t, "u@x.com", s.Errors[0].Email)
				assert.Contains(t, s.Errors[0].Error, "smtp unavailable")
			},
		},
		{
			name: "ошибка чтения eligible фатальна",
			setupMocks: func(r *MockRepository, _ *MockNotifier) {
				r.On("ListReminderEligible", mock.Anything).
					Return(nil, errors.New("db error")).Once()
			},
			wantErr: true,
		},
		{
			name: "ошибка чтения просроченных фатальна",
			setupMocks: func(r *MockRepository, _ *MockNotifier) {
				r.On("ListReminderEligible", mock.Anything).
					Return([]*models.Subscription{}, nil).Once()
				r.On("ListExpiredRenewals", mock.Anything, mock.Anything).
					Return(nil, errors.New("db error")).Once()
			},
			wantErr: true,
		},
		{
			name: "ошибка записи переноса фиксируется и не прерывает",
			setupMocks: func(r *MockRepository, _ *MockNotifier) {
				r.On("ListReminderEligible", mock.Anything).
					Return([]*models.Subscription{}, nil).Once()
				r.On("ListExpiredRenewals", mock.Anything, mock.Anything).
					Return([]*models.Subscription{expiredSub}, nil).Once()
				r.On("UpdateRenewalDate", mock.Anything, 3, date(2024, 3, 15)).
					Return(0, errors.New("write failed")).Once()
			},
			check: func(t *testing.T, s *CycleSummary) {
				assert.Empty(t, s.UpdatedRenewals)
				require.Len(t, s.Errors, 1)
				assert.Equal(t, 3, s.Errors[0].ID)
				assert.Equal(t, "iCloud", s.Errors[0].Name)
			},
		},
		{
			name: "мусорная дата продления пропускается с ошибкой",
			setupMocks: func(r *MockRepository, _ *MockNotifier) {
				garbage := *expiredSub
				garbage.ID = 4
				garbage.RenewalDate = date(1800, 1, 1)
				r.On("ListReminderEligible", mock.Anything).
					Return([]*models.Subscription{}, nil).Once()
				r.On("ListExpiredRenewals", mock.Anything, mock.Anything).
					Return([]*models.Subscription{&garbage}, nil).Once()
			},
			check: func(t *testing.T, s *CycleSummary) {
				assert.Empty(t, s.UpdatedRenewals)
				require.Len(t, s.Errors, 1)
				assert.Equal(t, 4, s.Errors[0].ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			notifier := new(MockNotifier)
			tt.setupMocks(repo, notifier)

			service := New(repo, notifier, clock, newNoopLogger(), 0)
			summary, err := service.RunCycle(context.Background())

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.NotNil(t, summary)
				assert.NotEmpty(t, summary.RunID)
				tt.check(t, summary)
			}

			repo.AssertExpectations(t)
			notifier.AssertExpectations(t)
		})
	}
}

func TestService_RunCycle_RolloverAheadOfUTC(t *testing.T) {
	// 12:00 UTC 14 марта — в Auckland (UTC+13) уже 15 марта.
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := clockwork.FakeClock{Current: now}

	aheadSub := &models.Subscription{
		ID:              7,
		Name:            "Neon",
		Price:           decimal.RequireFromString("12.50"),
		RenewalDate:     date(2024, 3, 14),
		ReminderEnabled: false,
		Timezone:        "Pacific/Auckland",
		UserEmail:       "w@x.com",
	}

	repo := new(MockRepository)
	notifier := new(MockNotifier)
	repo.On("ListReminderEligible", mock.Anything).
		Return([]*models.Subscription{}, nil).Once()
	// Граница выборки на день впереди календарной даты UTC,
	// иначе эта подписка не попала бы в выборку до полуночи UTC.
	repo.On("ListExpiredRenewals", mock.Anything, date(2024, 3, 15)).
		Return([]*models.Subscription{aheadSub}, nil).Once()
	repo.On("UpdateRenewalDate", mock.Anything, 7, date(2024, 4, 14)).
		Return(1, nil).Once()

	service := New(repo, notifier, clock, newNoopLogger(), 0)
	summary, err := service.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.UpdatedRenewals, 1)
	assert.Equal(t, "2024-03-14", summary.UpdatedRenewals[0].OldRenewalDate)
	assert.Equal(t, "2024-04-14", summary.UpdatedRenewals[0].NewRenewalDate)
	assert.Empty(t, summary.Errors)

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestService_RunCycle_BatchesPerRecipient(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := clockwork.FakeClock{Current: now}

	subs := []*models.Subscription{
		{ID: 1, Name: "B", Price: decimal.NewFromInt(5), RenewalDate: date(2024, 3, 15), ReminderEnabled: true, UserEmail: "u@x.com"},
		{ID: 2, Name: "A", Price: decimal.NewFromInt(10), RenewalDate: date(2024, 3, 15), ReminderEnabled: true, UserEmail: "u@x.com"},
		{ID: 3, Name: "C", Price: decimal.NewFromInt(3), RenewalDate: date(2024, 3, 15), ReminderEnabled: true, UserEmail: "v@x.com"},
	}

	repo := new(MockRepository)
	notifier := new(MockNotifier)
	repo.On("ListReminderEligible", mock.Anything).Return(subs, nil).Once()
	repo.On("ListExpiredRenewals", mock.Anything, mock.Anything).Return([]*models.Subscription{}, nil).Once()
	notifier.On("DispatchBatch", mock.Anything, mock.Anything).Return(nil).Twice()

	service := New(repo, notifier, clock, newNoopLogger(), 2)
	summary, err := service.RunCycle(context.Background())
	require.NoError(t, err)

	// Один получатель с двумя due-подписками получает одно письмо.
	require.Len(t, summary.RemindersSent, 2)
	assert.Equal(t, "u@x.com", summary.RemindersSent[0].Email)
	assert.Equal(t, 2, summary.RemindersSent[0].SubscriptionCount)
	assert.Equal(t, "v@x.com", summary.RemindersSent[1].Email)
	assert.Equal(t, 1, summary.RemindersSent[1].SubscriptionCount)

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}
