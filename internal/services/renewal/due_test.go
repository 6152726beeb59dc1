package renewal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/subtrackt/subtrackt/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsDueTomorrow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		sub  *models.Subscription
		want bool
	}{
		{
			name: "напоминания выключены - всегда false",
			now:  time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 15),
				ReminderEnabled: false,
				Timezone:        "UTC",
			},
			want: false,
		},
		{
			name: "продление завтра по UTC",
			now:  time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 15),
				ReminderEnabled: true,
				Timezone:        "UTC",
			},
			want: true,
		},
		{
			name: "продление сегодня - не due",
			now:  time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 14),
				ReminderEnabled: true,
				Timezone:        "UTC",
			},
			want: false,
		},
		{
			name: "продление послезавтра - не due",
			now:  time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 16),
				ReminderEnabled: true,
				Timezone:        "UTC",
			},
			want: false,
		},
		{
			// 03:00 UTC 15 марта это еще 23:00 14 марта в Нью-Йорке:
			// локально завтра 15-е, по UTC завтра было бы уже 16-е.
			name: "граница суток считается в timezone подписки",
			now:  time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 15),
				ReminderEnabled: true,
				Timezone:        "America/New_York",
			},
			want: true,
		},
		{
			name: "та же подписка по UTC уже не due",
			now:  time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 15),
				ReminderEnabled: true,
				Timezone:        "UTC",
			},
			want: false,
		},
		{
			name: "некорректный timezone откатывается к UTC",
			now:  time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 15),
				ReminderEnabled: true,
				Timezone:        "Mars/Olympus_Mons",
			},
			want: true,
		},
		{
			name: "пустой timezone означает UTC",
			now:  time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
			sub: &models.Subscription{
				RenewalDate:     date(2024, 3, 15),
				ReminderEnabled: true,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.sub.Name = "Netflix"
			tt.sub.Price = decimal.NewFromInt(10)
			tt.sub.UserEmail = "u@x.com"
			assert.Equal(t, tt.want, IsDueTomorrow(tt.now, tt.sub))
		})
	}
}

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantLoc  string
		wantOK   bool
	}{
		{"валидный идентификатор", "Europe/Moscow", "Europe/Moscow", true},
		{"пустая строка", "", "UTC", false},
		{"мусор", "not-a-zone", "UTC", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := ResolveLocation(tt.timezone)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLoc, loc.String())
		})
	}
}

func TestLocalDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, date(2024, 3, 14), LocalDate(now, ny))
	assert.Equal(t, date(2024, 3, 15), LocalDate(now, time.UTC))
}
