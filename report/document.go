package report

import (
	"time"

	"github.com/venuedesk/venuedesk/internal/quote"
)

// Party identifies the customer a document is addressed to.
type Party struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
}

// FullName joins first and last name.
func (p Party) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// QuoteDocument is everything printed on a quote. Version is the lead revision the figures
// belong to.
type QuoteDocument struct {
	Reference   string
	Version     int
	IssuedAt    time.Time
	Customer    Party
	Event       quote.EventContext
	Lines       []quote.Line
	Totals      quote.Totals
	DepositNote string
}

// InvoiceDocument is everything printed on an invoice.
type InvoiceDocument struct {
	Number         string
	IssuedAt       time.Time
	PaidAt         *time.Time
	QuoteReference string
	QuoteVersion   int
	Customer       Party
	Event          quote.EventContext
	Lines          []quote.Line
	Totals         quote.Totals
	Balance        float64
}
