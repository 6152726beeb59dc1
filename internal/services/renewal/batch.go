package renewal

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/subtrackt/subtrackt/internal/models"
)

// BuildBatches группирует подписки по получателю в батчи: один пользователь
// с несколькими due-подписками получает одно сводное письмо. Внутри батча
// подписки упорядочены по названию, батчи — по email получателя, чтобы
// результат был детерминированным.
func BuildBatches(subs []*models.Subscription) []models.ReminderBatch {
	grouped := make(map[string][]*models.Subscription)
	for _, sub := range subs {
		grouped[sub.UserEmail] = append(grouped[sub.UserEmail], sub)
	}

	recipients := make([]string, 0, len(grouped))
	for recipient := range grouped {
		recipients = append(recipients, recipient)
	}
	sort.Strings(recipients)

	batches := make([]models.ReminderBatch, 0, len(recipients))
	for _, recipient := range recipients {
		items := grouped[recipient]
		sort.Slice(items, func(i, j int) bool {
			return items[i].Name < items[j].Name
		})

		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.Price)
		}

		batches = append(batches, models.ReminderBatch{
			Recipient:     recipient,
			Subscriptions: items,
			Total:         total,
		})
	}
	return batches
}
