// Package clockwork задает источник текущего времени как внедряемую зависимость.
// Движок напоминаний получает "сейчас" только через Clock, что позволяет
// детерминированно тестировать выбор подписок и перенос дат продления.
package clockwork

import "time"

// Clock возвращает текущий момент времени.
type Clock interface {
	Now() time.Time
}

// RealClock реализует Clock поверх системных часов.
type RealClock struct{}

// Now возвращает системное время.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock реализует Clock с фиксированным моментом, используется в тестах.
type FakeClock struct {
	Current time.Time
}

// Now возвращает зафиксированный момент.
func (f FakeClock) Now() time.Time {
	return f.Current
}
