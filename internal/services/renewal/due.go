// Package renewal реализует движок напоминаний о продлении подписок:
// выбор подписок, продлевающихся "завтра" с учетом их timezone, перенос
// просроченных дат продления вперед и группировку напоминаний по получателю.
package renewal

import (
	"time"

	"github.com/subtrackt/subtrackt/internal/models"
)

// ResolveLocation возвращает локацию по идентификатору IANA.
// Пустой или некорректный идентификатор дает UTC; второй результат
// сообщает, удалось ли распознать исходное значение.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// IsDueTomorrow сообщает, продлевается ли подписка завтра.
// "Завтра" считается в timezone самой подписки: дата продления должна
// совпасть с локальной календарной датой now плюс один день. Подписки с
// выключенными напоминаниями никогда не считаются due.
func IsDueTomorrow(now time.Time, sub *models.Subscription) bool {
	if sub == nil || !sub.ReminderEnabled {
		return false
	}
	loc, _ := ResolveLocation(sub.Timezone)
	tomorrow := now.In(loc).AddDate(0, 0, 1)

	ry, rm, rd := sub.RenewalDate.Date()
	ty, tm, td := tomorrow.Date()
	return ry == ty && rm == tm && rd == td
}

// LocalDate проецирует момент времени в календарную дату указанной локации.
// Результат нормализован к полуночи UTC, как хранятся даты продления.
func LocalDate(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
