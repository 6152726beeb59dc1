// Package models содержит доменные структуры, описывающие подписку,
// а также вспомогательные типы для работы с данными из внешних источников (например, JSON-запросы).
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription представляет собой основную модель подписки,
// используемую в бизнес-логике и хранилище.
// RenewalDate хранится с гранулярностью календарной даты (полночь UTC),
// Timezone — идентификатор IANA владельца; пустое значение означает UTC.
type Subscription struct {
	ID              int             `json:"id"`               // Идентификатор, выдается хранилищем
	Name            string          `json:"name"`             // Название сервиса подписки
	Category        string          `json:"category"`         // Категория подписки
	Price           decimal.Decimal `json:"price"`            // Цена за один цикл продления
	RenewalDate     time.Time       `json:"renewal_date"`     // Дата следующего продления
	ReminderEnabled bool            `json:"reminder_enabled"` // Включены ли напоминания
	Timezone        string          `json:"timezone"`         // IANA timezone владельца
	UserEmail       string          `json:"user_email"`       // Email пользователя-владельца
}

// DummySubscription используется для приёма данных из JSON-запроса,
// прежде чем конвертировать их в Subscription.
// Дата приходит в виде строки, чтобы её можно было валидировать и парсить вручную.
type DummySubscription struct {
	Name            string  `json:"name" validate:"required"`         // Название сервиса
	Category        string  `json:"category" validate:"required"`     // Категория
	Price           float64 `json:"price" validate:"gte=0"`           // Цена (>=0)
	RenewalDate     string  `json:"renewal_date" validate:"required"` // Дата продления в формате 2006-01-02
	ReminderEnabled bool    `json:"reminder_enabled"`                 // Флаг напоминаний
	Timezone        string  `json:"timezone"`                         // IANA timezone, необязательно
}

// ReminderBatch группирует подписки одного получателя, подлежащие напоминанию
// в текущем цикле. Создается заново на каждый запуск планировщика и не
// сохраняется в хранилище; сериализуется в JSON при передаче через очередь.
type ReminderBatch struct {
	Recipient     string          `json:"recipient"`
	Subscriptions []*Subscription `json:"subscriptions"`
	Total         decimal.Decimal `json:"total"`
}
