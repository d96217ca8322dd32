package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/venuedesk/venuedesk/internal/platform/httpx"
)

// Handler serves the settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a settings handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.put)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Notification(r.Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, n)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	var n Notification
	if err := httpx.DecodeJSON(w, r, &n); err != nil {
		httpx.RespondError(w, err)
		return
	}
	saved, err := h.service.UpdateNotification(r.Context(), n)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}
