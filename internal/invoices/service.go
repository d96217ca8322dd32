package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/leads"
	"github.com/venuedesk/venuedesk/internal/money"
	"github.com/venuedesk/venuedesk/internal/quote"
	"github.com/venuedesk/venuedesk/report"
)

// LeadReader loads the lead an invoice was issued for.
type LeadReader interface {
	Get(ctx context.Context, id uuid.UUID) (*leads.Lead, error)
	Catalogue(ctx context.Context) (quote.Catalogue, error)
}

// InvoiceRenderer produces invoice PDFs.
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, doc report.InvoiceDocument) ([]byte, error)
}

// Service issues and settles invoices.
type Service struct {
	repo     Repository
	leads    LeadReader
	renderer InvoiceRenderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the invoice service.
func NewService(repo Repository, leads LeadReader, renderer InvoiceRenderer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, leads: leads, renderer: renderer, logger: logger, now: time.Now}
}

// Issue bills a confirmed lead at its current version and moves it to INVOICED.
func (s *Service) Issue(ctx context.Context, leadID uuid.UUID) (*Invoice, error) {
	var inv *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		state, err := tx.LockLead(ctx, leadID)
		if err != nil {
			return err
		}
		switch leads.Status(state.Status) {
		case leads.StatusConfirmed:
		case leads.StatusInvoiced:
			return fmt.Errorf("%w: %s", ErrAlreadyInvoiced, state.Reference)
		default:
			return fmt.Errorf("%w: %s is %s", ErrNotConfirmed, state.Reference, state.Status)
		}

		issuedAt := s.now()
		number, err := tx.GenerateNumber(ctx, issuedAt)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		inv = &Invoice{
			Number:      number,
			LeadID:      leadID,
			LeadVersion: state.Version,
			Status:      StatusIssued,
			Totals:      state.Totals,
			Balance:     money.Round(state.Totals.TotalTTC - state.Totals.Deposit),
			IssuedAt:    issuedAt,
		}
		if err := tx.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return tx.MarkLeadInvoiced(ctx, leadID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice issued",
		slog.String("number", inv.Number),
		slog.String("lead_id", leadID.String()),
		slog.Float64("total_ttc", inv.Totals.TotalTTC))
	return inv, nil
}

// MarkPaid settles an issued invoice.
func (s *Service) MarkPaid(ctx context.Context, id int64) (*Invoice, error) {
	var inv *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == StatusPaid {
			return fmt.Errorf("%w: %s", ErrAlreadyPaid, current.Number)
		}
		paidAt := s.now()
		if err := tx.SetPaid(ctx, id, paidAt); err != nil {
			return err
		}
		current.Status, current.PaidAt = StatusPaid, &paidAt
		inv = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice paid", slog.String("number", inv.Number))
	return inv, nil
}

// Get loads an invoice.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return inv, nil
}

// List returns a page of invoices, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	invoices, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, total, nil
}

// PDF renders the invoice document.
func (s *Service) PDF(ctx context.Context, id int64) (*Invoice, []byte, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	lead, err := s.leads.Get(ctx, inv.LeadID)
	if err != nil {
		return nil, nil, fmt.Errorf("load lead of %s: %w", inv.Number, err)
	}
	cat, err := s.leads.Catalogue(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalogue: %w", err)
	}
	pdf, err := s.renderer.RenderInvoice(ctx, report.InvoiceDocument{
		Number:         inv.Number,
		IssuedAt:       inv.IssuedAt,
		PaidAt:         inv.PaidAt,
		QuoteReference: lead.Reference,
		QuoteVersion:   inv.LeadVersion,
		Customer:       lead.Contact.Party(),
		Event:          lead.Selection.Event,
		Lines:          quote.Lines(lead.Selection, cat),
		Totals:         inv.Totals,
		Balance:        inv.Balance,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	return inv, pdf, nil
}
