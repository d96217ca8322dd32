// Package leads manages quote requests from submission to invoicing.
package leads

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/quote"
	"github.com/venuedesk/venuedesk/report"
)

var (
	ErrNotFound      = errors.New("lead not found")
	ErrInvalidStatus = errors.New("invalid status transition")
	ErrStaleVersion  = errors.New("lead was modified concurrently")
	ErrInvalid       = errors.New("invalid quote request")
)

// Status is the position of a lead in the sales pipeline.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusQuoteSent Status = "QUOTE_SENT"
	StatusConfirmed Status = "CONFIRMED"
	StatusLost      Status = "LOST"
	StatusInvoiced  Status = "INVOICED"
)

var pipeline = []Status{StatusNew, StatusContacted, StatusQuoteSent, StatusConfirmed}

func (s Status) rank() int {
	for i, p := range pipeline {
		if p == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.rank() >= 0 || s == StatusLost || s == StatusInvoiced
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusLost || s == StatusInvoiced
}

// Editable reports whether the selection may still change.
func (s Status) Editable() bool {
	r := s.rank()
	return r >= 0 && r < StatusConfirmed.rank()
}

// CanTransition reports whether an admin may move a lead from s to next. Pipeline stages move
// forward only, possibly skipping steps; LOST is reachable from any live stage. INVOICED is
// set by issuing an invoice, never directly.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() || next == s {
		return false
	}
	if next == StatusLost {
		return true
	}
	from, to := s.rank(), next.rank()
	return from >= 0 && to > from
}

// Contact is who asked for the quote.
type Contact struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone,omitempty" validate:"max=40"`
	Company   string `json:"company,omitempty" validate:"max=200"`
}

// Lead is a persisted quote request. Version increases on every selection change; a PDF
// stored for an older version is stale.
type Lead struct {
	ID              uuid.UUID       `json:"id"`
	Reference       string          `json:"reference"`
	Status          Status          `json:"status"`
	Version         int             `json:"version"`
	Contact         Contact         `json:"contact"`
	Message         string          `json:"message,omitempty"`
	Selection       quote.Selection `json:"selection"`
	Totals          quote.Totals    `json:"totals"`
	QuotePDFURL     string          `json:"quotePdfUrl,omitempty"`
	QuotePDFVersion int             `json:"quotePdfVersion,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// HasCurrentPDF reports whether the stored PDF matches the current version.
func (l *Lead) HasCurrentPDF() bool {
	return l.QuotePDFURL != "" && l.QuotePDFVersion == l.Version
}

// Party converts the contact for document rendering.
func (c Contact) Party() report.Party {
	return report.Party{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
	}
}

// QuoteDocument assembles the printable quote of the lead's current version.
func (l *Lead) QuoteDocument(cat quote.Catalogue, issuedAt time.Time, depositNote string) report.QuoteDocument {
	return report.QuoteDocument{
		Reference:   l.Reference,
		Version:     l.Version,
		IssuedAt:    issuedAt,
		Customer:    l.Contact.Party(),
		Event:       l.Selection.Event,
		Lines:       quote.Lines(l.Selection, cat),
		Totals:      l.Totals,
		DepositNote: depositNote,
	}
}
