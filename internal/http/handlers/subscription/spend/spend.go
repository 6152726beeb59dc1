// Package spend реализует HTTP-обработчик для подсчета суммарных трат пользователя
// на подписки за один цикл продления.
package spend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/subtrackt/subtrackt/internal/http/middlewarectx"
	"github.com/subtrackt/subtrackt/internal/http/response"
	"github.com/subtrackt/subtrackt/internal/lib/sl"
)

// Handler обрабатывает запросы на подсчет суммарных трат.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики подсчета трат.
type Service interface {
	CountMonthlySpend(ctx context.Context, userEmail string) (decimal.Decimal, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Суммарные траты на подписки
// @Description Возвращает сумму цен всех подписок текущего пользователя.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Сумма трат"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при подсчете"
// @Router /subscriptions/spend [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.spend"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userEmail, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || userEmail == "" {
		log.Error("user email not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	total, err := h.service.CountMonthlySpend(r.Context(), userEmail)
	if err != nil {
		log.Error("failed to count monthly spend", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not count monthly spend"))
		return
	}

	log.Info("success to count monthly spend", slog.String("total", total.StringFixed(2)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"monthly_spend": total.StringFixed(2),
	}))
}
