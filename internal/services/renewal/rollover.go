package renewal

import (
	"errors"
	"time"
)

// ErrInvalidRenewalDate возвращается, когда дата продления настолько далеко
// в прошлом, что перенос не укладывается в лимит итераций.
var ErrInvalidRenewalDate = errors.New("invalid renewal date")

// maxRolloverSteps ограничивает перенос примерно сотней лет,
// чтобы мусорная дата из хранилища не зациклила алгоритм.
const maxRolloverSteps = 1200

// NextRenewalDate переносит дату продления вперед помесячно до первой даты,
// не раньше today. Уже актуальная дата возвращается без изменений.
// Если в целевом месяце нет исходного числа, дата прижимается к последнему
// дню месяца, и дальнейшие шаги идут от прижатого числа:
// 2024-01-31 -> 2024-02-29 -> 2024-03-29.
func NextRenewalDate(current, today time.Time) (time.Time, error) {
	next := dateOnly(current)
	today = dateOnly(today)

	for range maxRolloverSteps {
		if !next.Before(today) {
			return next, nil
		}
		next = addMonthClamped(next)
	}
	return time.Time{}, ErrInvalidRenewalDate
}

// addMonthClamped добавляет один календарный месяц, прижимая число
// к последнему дню месяца вместо нормализации через следующий месяц.
func addMonthClamped(d time.Time) time.Time {
	y, m, day := d.Date()

	// Нулевой день следующего за целевым месяца — последний день целевого.
	lastDay := time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(y, m+1, day, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
