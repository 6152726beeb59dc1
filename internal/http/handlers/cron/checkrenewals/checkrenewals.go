// Package checkrenewals реализует HTTP-обработчик запуска цикла напоминаний и продлений.
//
// Эндпоинт защищен секретом планировщика: запрос без корректного секрета
// отклоняется до обращения к хранилищу. Успешный запуск возвращает сводку цикла.
package checkrenewals

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/subtrackt/subtrackt/internal/lib/sl"
	"github.com/subtrackt/subtrackt/internal/services/renewal"
)

// Engine описывает интерфейс движка напоминаний.
type Engine interface {
	RunCycle(ctx context.Context) (*renewal.CycleSummary, error)
}

// Handler обрабатывает запросы запуска цикла напоминаний.
type Handler struct {
	log        *slog.Logger
	engine     Engine
	cronSecret string
}

// New создает новый Handler с переданными логгером, движком и секретом планировщика.
func New(log *slog.Logger, engine Engine, cronSecret string) *Handler {
	return &Handler{
		log:        log,
		engine:     engine,
		cronSecret: cronSecret,
	}
}

// secretFromRequest извлекает секрет из query-параметра cronSecret
// или заголовка X-Cron-Secret.
func secretFromRequest(r *http.Request) string {
	if s := r.URL.Query().Get("cronSecret"); s != "" {
		return s
	}
	return r.Header.Get("X-Cron-Secret")
}

// ServeHTTP godoc
// @Summary Запустить цикл напоминаний и продлений
// @Description Отправляет напоминания о завтрашних продлениях и переносит просроченные даты продления. Требует секрет планировщика.
// @Tags Cron
// @Produce  json
// @Param cronSecret query string false "Секрет планировщика"
// @Success 200 {object} map[string]any "Сводка выполненного цикла"
// @Failure 401 {object} response.ErrorResponse "Неверный секрет"
// @Failure 500 {object} map[string]any "Фатальная ошибка цикла"
// @Router /cron/check-renewals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cron.checkrenewals"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	secret := secretFromRequest(r)
	if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.cronSecret)) != 1 {
		log.Error("invalid cron secret")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, map[string]any{
			"success": false,
			"error":   "unauthorized",
		})
		return
	}

	summary, err := h.engine.RunCycle(r.Context())
	if err != nil {
		log.Error("renewal cycle failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	log.Info("renewal cycle finished",
		slog.String("run_id", summary.RunID),
		slog.Int("reminders_sent", len(summary.RemindersSent)),
		slog.Int("updated_renewals", len(summary.UpdatedRenewals)),
		slog.Int("errors", len(summary.Errors)))
	render.JSON(w, r, map[string]any{
		"success":         true,
		"runId":           summary.RunID,
		"remindersSent":   summary.RemindersSent,
		"updatedRenewals": summary.UpdatedRenewals,
		"errors":          summary.Errors,
		"timestamp":       summary.Timestamp,
	})
}
