// Package metrics содержит счетчики Prometheus для цикла напоминаний.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RemindersSent число подписок, по которым отправлено напоминание.
	RemindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subtrackt_reminders_sent_total",
			Help: "Total number of subscriptions a reminder was dispatched for",
		},
	)
	// DispatchErrors число неудачных отправок батчей.
	DispatchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subtrackt_reminder_dispatch_errors_total",
			Help: "Total number of failed reminder batch dispatches",
		},
	)
	// RenewalRollovers число дат продления, перенесенных вперед.
	RenewalRollovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subtrackt_renewal_rollovers_total",
			Help: "Total number of renewal dates rolled forward",
		},
	)
)

// Register регистрирует счетчики. Вызывается один раз при старте приложения.
func Register() {
	prometheus.MustRegister(RemindersSent)
	prometheus.MustRegister(DispatchErrors)
	prometheus.MustRegister(RenewalRollovers)
}
