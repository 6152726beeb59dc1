// Package subtrackt собирает основное HTTP-приложение: хранилище, кеш,
// сервисы, движок напоминаний и маршруты.
package subtrackt

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/subtrackt/subtrackt/internal/cache"
	"github.com/subtrackt/subtrackt/internal/config"
	"github.com/subtrackt/subtrackt/internal/lib/clockwork"
	"github.com/subtrackt/subtrackt/internal/lib/jwt"
	"github.com/subtrackt/subtrackt/internal/lib/smtp"
	"github.com/subtrackt/subtrackt/internal/metrics"
	"github.com/subtrackt/subtrackt/internal/migrations"
	authservice "github.com/subtrackt/subtrackt/internal/services/auth"
	"github.com/subtrackt/subtrackt/internal/services/renewal"
	senderservice "github.com/subtrackt/subtrackt/internal/services/sender"
	subservice "github.com/subtrackt/subtrackt/internal/services/subscription"
	"github.com/subtrackt/subtrackt/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New собирает приложение из конфигурации: подключает хранилище,
// прогоняет миграции, инициализирует кеш, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	tokenMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.New(db, tokenMaker, logger)
	subscriptionService := subservice.NewSubscriptionService(db, cacheRedis, logger)

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.New(transport, logger)
	engine := renewal.New(db, senderService, clockwork.RealClock{}, logger, cfg.DispatchWorkers)

	metrics.Register()

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService, subscriptionService, engine, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
