package leads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/quote"
)

// CatalogueProvider yields the catalogue quotes are priced against.
type CatalogueProvider interface {
	Catalogue(ctx context.Context) (quote.Catalogue, error)
}

// Dispatcher queues the background work that follows lead changes.
type Dispatcher interface {
	EnqueueLeadNotify(ctx context.Context, leadID string) error
	EnqueueQuotePDF(ctx context.Context, leadID string, version int) error
}

// Service implements the lead workflow.
type Service struct {
	repo       Repository
	catalogue  CatalogueProvider
	dispatcher Dispatcher
	metrics    *observability.Metrics
	logger     *slog.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// NewService constructs the lead service. dispatcher and metrics may be nil.
func NewService(repo Repository, catalogue CatalogueProvider, dispatcher Dispatcher, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		catalogue:  catalogue,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// Catalogue exposes the catalogue used for pricing.
func (s *Service) Catalogue(ctx context.Context) (quote.Catalogue, error) {
	return s.catalogue.Catalogue(ctx)
}

// Availability lists every catalogue formula with its verdict for the event.
func (s *Service) Availability(ctx context.Context, event quote.EventContext) ([]quote.FormulaAvailability, error) {
	cat, err := s.catalogue.Catalogue(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	return quote.AvailableFormulas(cat, event), nil
}

// Preview prices a wizard selection against the live catalogue without storing anything.
func (s *Service) Preview(ctx context.Context, sel quote.Selection) (PreviewResponse, error) {
	cat, err := s.catalogue.Catalogue(ctx)
	if err != nil {
		return PreviewResponse{}, fmt.Errorf("load catalogue: %w", err)
	}
	resolved, err := customerSelection(sel, cat)
	if err != nil {
		return PreviewResponse{}, err
	}
	s.metrics.QuoteComputed(observability.SourcePreview)
	return PreviewResponse{Totals: quote.CalculateTotal(resolved, cat), Lines: quote.Lines(resolved, cat)}, nil
}

// PreviewAsIs prices a back-office selection exactly as given, snapshots and negotiated
// prices included.
func (s *Service) PreviewAsIs(ctx context.Context, sel quote.Selection) (PreviewResponse, error) {
	cat, err := s.catalogue.Catalogue(ctx)
	if err != nil {
		return PreviewResponse{}, fmt.Errorf("load catalogue: %w", err)
	}
	s.metrics.QuoteComputed(observability.SourceAdmin)
	return PreviewResponse{Totals: quote.CalculateTotal(sel, cat), Lines: quote.Lines(sel, cat)}, nil
}

// Submit stores a customer's quote request. A repeated idempotency key returns the lead the
// first call created and false.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, idempotencyKey string) (*Lead, bool, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, false, err
	}
	cat, err := s.catalogue.Catalogue(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load catalogue: %w", err)
	}
	sel, err := customerSelection(req.Selection, cat)
	if err != nil {
		return nil, false, err
	}
	if err := checkBookable(sel); err != nil {
		return nil, false, err
	}

	totals := quote.CalculateTotal(sel, cat)
	s.metrics.QuoteComputed(observability.SourceSubmit)

	lead := &Lead{
		ID:        uuid.New(),
		Status:    StatusNew,
		Version:   1,
		Contact:   req.Contact,
		Message:   req.Message,
		Selection: sel,
		Totals:    totals,
	}

	var replayID uuid.UUID
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if idempotencyKey != "" {
			id, claimed, err := tx.ClaimSubmission(ctx, idempotencyKey, lead.ID)
			if err != nil {
				return fmt.Errorf("claim idempotency key: %w", err)
			}
			if !claimed {
				replayID = id
				return nil
			}
		}
		ref, err := tx.GenerateReference(ctx, s.now())
		if err != nil {
			return fmt.Errorf("generate reference: %w", err)
		}
		lead.Reference = ref
		if err := tx.Create(ctx, lead); err != nil {
			return fmt.Errorf("create lead: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if replayID != uuid.Nil {
		existing, err := s.repo.Get(ctx, replayID)
		if err != nil {
			return nil, false, fmt.Errorf("load replayed lead: %w", err)
		}
		return existing, false, nil
	}

	s.metrics.LeadSubmitted(totals.TotalTTC)
	s.logger.Info("lead submitted",
		slog.String("reference", lead.Reference),
		slog.String("event_date", sel.Event.Date.String()),
		slog.Int("guests", sel.Event.Guests()),
		slog.Float64("total_ttc", totals.TotalTTC))
	s.dispatch(ctx, lead, true)
	return lead, true, nil
}

// Get loads a lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lead %s: %w", id, err)
	}
	return lead, nil
}

// List returns a page of leads, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Lead, int, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalid, *req.Status)
	}
	leads, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	return leads, total, nil
}

// UpdateSelection replaces the selection of a lead that is not yet confirmed, recomputes its
// totals and bumps its version. The selection is stored as given: formula and option
// snapshots keep the prices they were selected at.
func (s *Service) UpdateSelection(ctx context.Context, id uuid.UUID, req UpdateSelectionRequest) (*Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	sel := req.Selection.Normalize()
	if err := checkBookable(sel); err != nil {
		return nil, err
	}
	cat, err := s.catalogue.Catalogue(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}

	var lead *Lead
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return fmt.Errorf("%w: lead %s is %s", ErrInvalidStatus, current.Reference, current.Status)
		}
		if req.Version != 0 && req.Version != current.Version {
			return fmt.Errorf("%w: expected version %d, stored %d", ErrStaleVersion, req.Version, current.Version)
		}
		current.Selection = sel
		current.Totals = quote.CalculateTotal(sel, cat)
		current.Version++
		if err := tx.UpdateSelection(ctx, current); err != nil {
			return fmt.Errorf("update selection: %w", err)
		}
		lead = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.QuoteComputed(observability.SourceAdmin)
	s.dispatch(ctx, lead, false)
	return lead, nil
}

// Transition moves a lead along the pipeline.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, next Status) (*Lead, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, next)
	}
	var lead *Lead
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, current.Status, next)
		}
		if err := tx.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		current.Status = next
		lead = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead status changed", slog.String("reference", lead.Reference), slog.String("status", string(next)))
	return lead, nil
}

// AttachQuotePDF records where the PDF of version was stored. It reports false when the lead
// has moved on to a newer version.
func (s *Service) AttachQuotePDF(ctx context.Context, id uuid.UUID, version int, url string) (bool, error) {
	ok, err := s.repo.SetQuotePDF(ctx, id, version, url)
	if err != nil {
		return false, fmt.Errorf("attach quote pdf: %w", err)
	}
	return ok, nil
}

func (s *Service) dispatch(ctx context.Context, lead *Lead, submitted bool) {
	if s.dispatcher == nil {
		return
	}
	if submitted {
		if err := s.dispatcher.EnqueueLeadNotify(ctx, lead.ID.String()); err != nil {
			s.logger.Warn("enqueue lead notification", slog.String("reference", lead.Reference), slog.Any("error", err))
		}
	}
	if err := s.dispatcher.EnqueueQuotePDF(ctx, lead.ID.String(), lead.Version); err != nil {
		s.logger.Warn("enqueue quote pdf", slog.String("reference", lead.Reference), slog.Any("error", err))
	}
}
