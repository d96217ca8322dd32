package catalogue

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/venuedesk/venuedesk/internal/platform/httpx"
	"github.com/venuedesk/venuedesk/internal/quote"
)

// Handler exposes the catalogue over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a catalogue handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the public catalogue read.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/catalogue", h.get)
}

// MountAdminRoutes registers catalogue editing routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/catalogue", h.get)
	r.Put("/catalogue/formulas/{id}", h.putFormula)
	r.Delete("/catalogue/formulas/{id}", h.deleteFormula)
	r.Put("/catalogue/options/{name}", h.putOption)
	r.Delete("/catalogue/options/{name}", h.deleteOption)
}

type saveFormulaResponse struct {
	Formula  quote.FormulaDefinition `json:"formula"`
	Warnings []string                `json:"warnings"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cat, err := h.service.Catalogue(r.Context())
	if err != nil {
		h.fail(w, "load catalogue", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cat)
}

func (h *Handler) putFormula(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var f quote.FormulaDefinition
	if err := httpx.DecodeJSON(w, r, &f); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.ID == "" {
		f.ID = id
	}
	if f.ID != id {
		httpx.RespondError(w, fmt.Errorf("%w: body id %q does not match path", httpx.ErrValidation, f.ID))
		return
	}
	warnings, err := h.service.SaveFormula(r.Context(), f)
	if err != nil {
		h.fail(w, "save formula", err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	httpx.JSON(w, http.StatusOK, saveFormulaResponse{Formula: f, Warnings: warnings})
}

func (h *Handler) deleteFormula(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteFormula(r.Context(), id); err != nil {
		h.fail(w, "delete formula", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) putOption(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var item quote.QuoteItem
	if err := httpx.DecodeJSON(w, r, &item); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if item.Name == "" {
		item.Name = name
	}
	if item.Name != name {
		httpx.RespondError(w, fmt.Errorf("%w: body name %q does not match path", httpx.ErrValidation, item.Name))
		return
	}
	if err := h.service.SaveOption(r.Context(), item); err != nil {
		h.fail(w, "save option", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteOption(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteOption(r.Context(), name); err != nil {
		h.fail(w, "delete option", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathParam returns the decoded URL parameter. Option names may contain an escaped slash,
// which chi leaves encoded when it routes on the raw path.
func pathParam(r *http.Request, key string) (string, error) {
	value, err := url.PathUnescape(chi.URLParam(r, key))
	if err != nil {
		return "", fmt.Errorf("%w: malformed %s", httpx.ErrValidation, key)
	}
	return value, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrValidation):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	default:
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
