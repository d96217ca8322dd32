package invoices

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/platform/httpx"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// Handler exposes invoicing to the back office.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs an invoice handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.list)
	r.Post("/leads/{id}/invoice", h.issue)
	r.Get("/invoices/{id}", h.get)
	r.Post("/invoices/{id}/paid", h.markPaid)
	r.Get("/invoices/{id}/invoice.pdf", h.pdf)
}

type listResponse struct {
	Items      []Invoice         `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		if status != StatusIssued && status != StatusPaid {
			httpx.RespondError(w, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, raw))
			return
		}
		req.Status = &status
	}
	page := shared.NewPagination(httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "per_page", shared.DefaultPerPage), 0)
	req.Limit, req.Offset = page.PerPage, page.Offset()

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	if items == nil {
		items = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: shared.NewPagination(page.Page, page.PerPage, total)})
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: lead", httpx.ErrNotFound))
		return
	}
	inv, err := h.service.Issue(r.Context(), leadID)
	if err != nil {
		h.respondError(w, "issue invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.MarkPaid(r.Context(), id)
	if err != nil {
		h.respondError(w, "mark invoice paid", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	inv, pdf, err := h.service.PDF(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.respondError(w, "invoice pdf", err)
			return
		}
		h.logger.Error("invoice pdf", slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Rendering Failed", "")
		return
	}
	httpx.PDF(w, fmt.Sprintf("facture-%s.pdf", inv.Number), pdf)
}

func invoiceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invoice", httpx.ErrNotFound))
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLeadNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrNotConfirmed), errors.Is(err, ErrAlreadyInvoiced), errors.Is(err, ErrAlreadyPaid):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
