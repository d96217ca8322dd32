package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/platform/httpx"
	"github.com/venuedesk/venuedesk/internal/quote"
	"github.com/venuedesk/venuedesk/internal/shared"
	"github.com/venuedesk/venuedesk/report"
)

// IdempotencyHeader carries the client-chosen key that makes submissions safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// QuoteRenderer produces quote PDFs.
type QuoteRenderer interface {
	RenderQuote(ctx context.Context, doc report.QuoteDocument) ([]byte, error)
}

// NoteSource supplies the deposit note printed on quotes.
type NoteSource interface {
	DepositNote(ctx context.Context) string
}

// Handler exposes the lead workflow over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer QuoteRenderer
	notes    NoteSource
	baseURL  string
}

// NewHandler constructs a lead handler. baseURL prefixes links returned to customers.
func NewHandler(logger *slog.Logger, service *Service, renderer QuoteRenderer, notes NoteSource, baseURL string) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer, notes: notes, baseURL: baseURL}
}

// MountRoutes registers the public wizard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/availability", h.availability)
	r.Post("/quote/preview", h.preview)
	r.Post("/leads", h.submit)
	r.Get("/leads/{id}/quote.pdf", h.quotePDF)
}

// MountAdminRoutes registers the back-office routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/quote/preview", h.adminPreview)
	r.Get("/leads", h.list)
	r.Get("/leads/export.xlsx", h.export)
	r.Get("/leads/{id}", h.get)
	r.Get("/leads/{id}/quote.pdf", h.quotePDF)
	r.Put("/leads/{id}/selection", h.updateSelection)
	r.Post("/leads/{id}/status", h.transition)
}

// LeadSummary is a listing row.
type LeadSummary struct {
	ID        string        `json:"id"`
	Reference string        `json:"reference"`
	Status    Status        `json:"status"`
	Version   int           `json:"version"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Company   string        `json:"company,omitempty"`
	EventDate quote.Date    `json:"eventDate"`
	Service   quote.Service `json:"service"`
	Guests    int           `json:"guests"`
	TotalTTC  float64       `json:"totalTtc"`
	Deposit   float64       `json:"deposit"`
	CreatedAt time.Time     `json:"createdAt"`
}

type listResponse struct {
	Items      []LeadSummary     `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func summarize(l Lead) LeadSummary {
	return LeadSummary{
		ID:        l.ID.String(),
		Reference: l.Reference,
		Status:    l.Status,
		Version:   l.Version,
		Name:      l.Contact.Party().FullName(),
		Email:     l.Contact.Email,
		Company:   l.Contact.Company,
		EventDate: l.Selection.Event.Date,
		Service:   l.Selection.Event.Service,
		Guests:    l.Selection.Event.Guests(),
		TotalTTC:  l.Totals.TotalTTC,
		Deposit:   l.Totals.Deposit,
		CreatedAt: l.CreatedAt,
	}
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := quote.ParseDate(q.Get("date"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	event := quote.EventContext{
		Date:     date,
		Service:  quote.Service(q.Get("service")),
		Adults:   httpx.QueryInt(r, "adults", 0),
		Children: httpx.QueryInt(r, "children", 0),
	}
	verdicts, err := h.service.Availability(r.Context(), event)
	if err != nil {
		h.respondError(w, "availability", err)
		return
	}
	httpx.JSON(w, http.StatusOK, verdicts)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var sel quote.Selection
	if err := httpx.DecodeJSON(w, r, &sel); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.Preview(r.Context(), sel)
	if err != nil {
		h.respondError(w, "preview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) adminPreview(w http.ResponseWriter, r *http.Request) {
	var sel quote.Selection
	if err := httpx.DecodeJSON(w, r, &sel); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.PreviewAsIs(r.Context(), sel)
	if err != nil {
		h.respondError(w, "admin preview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lead, created, err := h.service.Submit(r.Context(), req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.respondError(w, "submit lead", err)
		return
	}
	cat, err := h.service.Catalogue(r.Context())
	if err != nil {
		h.respondError(w, "submit lead", err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	httpx.JSON(w, status, SubmitResponse{
		ID:        lead.ID.String(),
		Reference: lead.Reference,
		Status:    lead.Status,
		Totals:    lead.Totals,
		Lines:     quote.Lines(lead.Selection, cat),
		QuoteURL:  fmt.Sprintf("%s/api/leads/%s/quote.pdf", h.baseURL, lead.ID),
	})
}

func (h *Handler) quotePDF(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadLead(w, r)
	if !ok {
		return
	}
	if lead.HasCurrentPDF() {
		http.Redirect(w, r, lead.QuotePDFURL, http.StatusFound)
		return
	}
	cat, err := h.service.Catalogue(r.Context())
	if err != nil {
		h.respondError(w, "quote pdf", err)
		return
	}
	note := ""
	if h.notes != nil {
		note = h.notes.DepositNote(r.Context())
	}
	pdf, err := h.renderer.RenderQuote(r.Context(), lead.QuoteDocument(cat, time.Now(), note))
	if err != nil {
		h.logger.Error("render quote pdf", slog.String("reference", lead.Reference), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Rendering Failed", "")
		return
	}
	httpx.PDF(w, fmt.Sprintf("devis-%s-v%d.pdf", lead.Reference, lead.Version), pdf)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, ok := listRequest(w, r)
	if !ok {
		return
	}
	page := shared.NewPagination(httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "per_page", shared.DefaultPerPage), 0)
	req.Limit, req.Offset = page.PerPage, page.Offset()

	leads, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list leads", err)
		return
	}
	items := make([]LeadSummary, 0, len(leads))
	for _, l := range leads {
		items = append(items, summarize(l))
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Items:      items,
		Pagination: shared.NewPagination(page.Page, page.PerPage, total),
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	req, ok := listRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leads-%s.xlsx"`, time.Now().Format("20060102")))
	if _, err := h.service.ExportXLSX(r.Context(), w, req); err != nil {
		h.logger.Error("export leads", slog.Any("error", err))
		w.Header().Del("Content-Disposition")
		h.respondError(w, "export leads", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadLead(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) updateSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req UpdateSelectionRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lead, err := h.service.UpdateSelection(r.Context(), id, req)
	if err != nil {
		h.respondError(w, "update selection", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req TransitionRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lead, err := h.service.Transition(r.Context(), id, req.Status)
	if err != nil {
		h.respondError(w, "transition lead", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) loadLead(w http.ResponseWriter, r *http.Request) (*Lead, bool) {
	id, ok := leadID(w, r)
	if !ok {
		return nil, false
	}
	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get lead", err)
		return nil, false
	}
	return lead, true
}

func leadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: lead", httpx.ErrNotFound))
		return uuid.Nil, false
	}
	return id, true
}

func listRequest(w http.ResponseWriter, r *http.Request) (ListRequest, bool) {
	var req ListRequest
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			httpx.RespondError(w, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, raw))
			return req, false
		}
		req.Status = &status
	}
	return req, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrInvalid):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrStaleVersion):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
	default:
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
