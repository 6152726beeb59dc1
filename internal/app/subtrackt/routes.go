// Package subtrackt предоставляет маршруты для основного приложения.
package subtrackt

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/subtrackt/subtrackt/internal/config"
	"github.com/subtrackt/subtrackt/internal/http/handlers/auth/deleteaccount"
	"github.com/subtrackt/subtrackt/internal/http/handlers/auth/login"
	"github.com/subtrackt/subtrackt/internal/http/handlers/auth/register"
	"github.com/subtrackt/subtrackt/internal/http/handlers/cron/checkrenewals"
	"github.com/subtrackt/subtrackt/internal/http/handlers/subscription/create"
	"github.com/subtrackt/subtrackt/internal/http/handlers/subscription/health"
	"github.com/subtrackt/subtrackt/internal/http/handlers/subscription/list"
	"github.com/subtrackt/subtrackt/internal/http/handlers/subscription/read"
	"github.com/subtrackt/subtrackt/internal/http/handlers/subscription/remove"
	"github.com/subtrackt/subtrackt/internal/http/handlers/subscription/spend"
	"github.com/subtrackt/subtrackt/internal/http/handlers/subscription/update"
	"github.com/subtrackt/subtrackt/internal/http/middlewarectx"
	authservice "github.com/subtrackt/subtrackt/internal/services/auth"
	"github.com/subtrackt/subtrackt/internal/services/renewal"
	subservice "github.com/subtrackt/subtrackt/internal/services/subscription"
	"github.com/subtrackt/subtrackt/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.AuthService, subscriptionService *subservice.SubscriptionService,
	engine *renewal.Service, db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(1), 3)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Триггер цикла напоминаний, защищенный секретом планировщика
		r.Get("/cron/check-renewals", checkrenewals.New(logger, engine, cfg.CronSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Delete("/account", deleteaccount.New(logger, authService).ServeHTTP)
			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/list", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/spend", spend.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, subscriptionService).ServeHTTP)
			r.Put("/subscriptions/{id}", update.New(logger, subscriptionService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
