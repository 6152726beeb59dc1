// Package deleteaccount реализует HTTP-обработчик удаления учётной записи пользователя.
//
// Email берется из контекста аутентификации, подписки пользователя
// удаляются каскадом на уровне схемы.
package deleteaccount

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/subtrackt/subtrackt/internal/http/middlewarectx"
	"github.com/subtrackt/subtrackt/internal/http/response"
	"github.com/subtrackt/subtrackt/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики удаления учётной записи.
type Service interface {
	DeleteAccount(ctx context.Context, email string) (int, error)
}

// Handler обрабатывает запросы на удаление учётной записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить учётную запись
// @Description Удаляет учётную запись текущего пользователя вместе с его подписками.
// @Tags Auth
// @Produce  json
// @Success 200 {object} map[string]any "Учётная запись удалена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Учётная запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при удалении"
// @Router /account [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.deleteaccount"

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

	count, err := h.service.DeleteAccount(r.Context(), userEmail)
	if err != nil {
		log.Error("failed to delete account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete account"))
		return
	}
	if count == 0 {
		log.Error("account not found", slog.String("email", userEmail))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("account not found"))
		return
	}

	log.Info("success to delete account", slog.String("email", userEmail))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "account deleted successfully",
	}))
}
