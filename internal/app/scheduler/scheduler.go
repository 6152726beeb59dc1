// Package scheduler собирает standalone-планировщик циклов напоминаний:
// по тикеру запускает движок, а найденные батчи публикует в очередь.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/subtrackt/subtrackt/internal/config"
	"github.com/subtrackt/subtrackt/internal/lib/clockwork"
	"github.com/subtrackt/subtrackt/internal/lib/sl"
	"github.com/subtrackt/subtrackt/internal/metrics"
	"github.com/subtrackt/subtrackt/internal/rabbitmq"
	"github.com/subtrackt/subtrackt/internal/services/renewal"
	"github.com/subtrackt/subtrackt/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	engine   *renewal.Service
	conn     *amqp.Connection
	ch       *amqp.Channel
	interval time.Duration
	logger   *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	queues := rabbitmq.GetReminderQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	metrics.Register()

	publisher := rabbitmq.NewBatchPublisher(ch)
	engine := renewal.New(db, publisher, clockwork.RealClock{}, logger, cfg.DispatchWorkers)

	return &App{
		engine:   engine,
		conn:     conn,
		ch:       ch,
		interval: cfg.CronInterval,
		logger:   logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает планировщик: один цикл сразу, дальше по тикеру.
func (a *App) Run(ctx context.Context) error {
	a.runCycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.runCycle(ctx)
		case <-ctx.Done():
			a.logger.Info("shutting down scheduler service")
			closeResources(a.ch, a.conn, a.logger)
			return nil
		}
	}
}

func (a *App) runCycle(ctx context.Context) {
	summary, err := a.engine.RunCycle(ctx)
	if err != nil {
		a.logger.Error("renewal cycle failed", sl.Err(err))
		return
	}
	a.logger.Info("renewal cycle finished",
		slog.String("run_id", summary.RunID),
		slog.Int("reminders_sent", len(summary.RemindersSent)),
		slog.Int("updated_renewals", len(summary.UpdatedRenewals)),
		slog.Int("errors", len(summary.Errors)))
}
