package renewal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRenewalDate(t *testing.T) {
	tests := []struct {
		name    string
		current time.Time
		today   time.Time
		want    time.Time
	}{
		{
			name:    "будущая дата возвращается без изменений",
			current: date(2024, 6, 15),
			today:   date(2024, 3, 1),
			want:    date(2024, 6, 15),
		},
		{
			name:    "сегодняшняя дата возвращается без изменений",
			current: date(2024, 3, 1),
			today:   date(2024, 3, 1),
			want:    date(2024, 3, 1),
		},
		{
			name:    "помесячный перенос с сохранением числа",
			current: date(2024, 1, 15),
			today:   date(2024, 3, 1),
			want:    date(2024, 3, 15),
		},
		{
			name:    "прижатие к концу месяца, число сохраняется после прижатия",
			current: date(2024, 1, 31),
			today:   date(2024, 3, 1),
			want:    date(2024, 3, 29),
		},
		{
			name:    "31 января невисокосного года",
			current: date(2023, 1, 31),
			today:   date(2023, 3, 1),
			want:    date(2023, 3, 28),
		},
		{
			name:    "один шаг на следующий месяц",
			current: date(2024, 2, 10),
			today:   date(2024, 2, 11),
			want:    date(2024, 3, 10),
		},
		{
			name:    "перенос через границу года",
			current: date(2023, 11, 30),
			today:   date(2024, 2, 1),
			want:    date(2024, 2, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRenewalDate(tt.current, tt.today)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestNextRenewalDate_Idempotent(t *testing.T) {
	today := date(2024, 3, 1)
	first, err := NextRenewalDate(date(2024, 1, 15), today)
	require.NoError(t, err)

	second, err := NextRenewalDate(first, today)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestNextRenewalDate_IterationCap(t *testing.T) {
	// Дата более чем на 100 лет в прошлом не укладывается в лимит шагов.
	_, err := NextRenewalDate(date(1800, 1, 1), date(2024, 3, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRenewalDate)
}
