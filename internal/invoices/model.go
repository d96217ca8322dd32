// Package invoices bills confirmed leads.
package invoices

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/quote"
)

var (
	ErrNotFound        = errors.New("invoice not found")
	ErrLeadNotFound    = errors.New("lead not found")
	ErrNotConfirmed    = errors.New("lead is not confirmed")
	ErrAlreadyInvoiced = errors.New("lead already invoiced")
	ErrAlreadyPaid     = errors.New("invoice already paid")
)

// Status of an invoice.
type Status string

const (
	StatusIssued Status = "ISSUED"
	StatusPaid   Status = "PAID"
)

// Invoice freezes the totals of a lead at the version that was confirmed.
type Invoice struct {
	ID          int64        `json:"id"`
	Number      string       `json:"number"`
	LeadID      uuid.UUID    `json:"leadId"`
	LeadVersion int          `json:"leadVersion"`
	Status      Status       `json:"status"`
	Totals      quote.Totals `json:"totals"`
	Balance     float64      `json:"balance"`
	IssuedAt    time.Time    `json:"issuedAt"`
	PaidAt      *time.Time   `json:"paidAt,omitempty"`
}

// LeadState is what invoicing needs to know about a lead, read under lock.
type LeadState struct {
	Reference string
	Status    string
	Version   int
	Totals    quote.Totals
}

// ListRequest filters the invoice listing.
type ListRequest struct {
	Status *Status
	Limit  int
	Offset int
}
