package rabbitmq

// RemindersExchange имя exchange, через который проходят батчи напоминаний.
const RemindersExchange = "reminders"

// DueRoutingKey ключ маршрутизации для батчей, подлежащих отправке.
const DueRoutingKey = "due"

// DueQueue имя очереди, из которой sender забирает батчи.
const DueQueue = "reminders.due"

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetReminderQueues возвращает очереди, необходимые конвейеру напоминаний.
func GetReminderQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: DueQueue, RoutingKey: DueRoutingKey},
	}
}
