package report

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/quote"
)

type capturePDF struct {
	html string
}

func (c *capturePDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	c.html = html
	return []byte("%PDF"), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleQuote() QuoteDocument {
	return QuoteDocument{
		Reference: "DV-2506-0007",
		Version:   3,
		IssuedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Customer:  Party{FirstName: "Camille", LastName: "Martin", Email: "camille@example.fr", Company: "Acme"},
		Event: quote.EventContext{
			Date: quote.NewDate(2025, time.June, 13), Service: quote.ServiceDinner1, Adults: 10, Children: 2,
		},
		Lines: []quote.Line{
			{Kind: quote.LineFormula, Label: "Tapas Signature", Quantity: 10, UnitTTC: 49, TotalTTC: 490},
			{Kind: quote.LineOption, Label: "DJ", Quantity: 1, Offered: true},
		},
		Totals: quote.Totals{
			TotalTTC: 490, TotalHT: 438.6, TotalTVA: 51.4, Deposit: 147,
			Breakdown: quote.Breakdown{
				VAT10: quote.VATBand{HT: 363.6, TVA: 36.36},
				VAT20: quote.VATBand{HT: 75, TVA: 15},
			},
		},
		DepositNote: "Acompte de 30 % à la signature.",
	}
}

func TestRendererQuoteHTML(t *testing.T) {
	client := &capturePDF{}
	r, err := NewRenderer(client)
	require.NoError(t, err)

	pdf, err := r.RenderQuote(context.Background(), sampleQuote())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf))

	html := client.html
	assert.Contains(t, html, "Devis DV-2506-0007")
	assert.Contains(t, html, "Version 3")
	assert.Contains(t, html, "13 juin 2025")
	assert.Contains(t, html, "Dîner (1er service)")
	assert.Contains(t, html, "Camille Martin")
	assert.Contains(t, html, "490,00")
	assert.Contains(t, html, "147,00")
	assert.Contains(t, html, "36,36")
	assert.Contains(t, html, "(offert)")
	assert.Contains(t, html, "2 enfant(s)")
	assert.NotContains(t, html, "Remise")
}

func TestRendererInvoiceHTML(t *testing.T) {
	r, err := NewRenderer(&capturePDF{})
	require.NoError(t, err)
	q := sampleQuote()
	paid := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	html, err := r.InvoiceHTML(InvoiceDocument{
		Number:         "FA-2506-0001",
		IssuedAt:       time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		PaidAt:         &paid,
		QuoteReference: q.Reference,
		QuoteVersion:   q.Version,
		Customer:       q.Customer,
		Event:          q.Event,
		Lines:          q.Lines,
		Totals:         q.Totals,
		Balance:        343,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Facture FA-2506-0001")
	assert.Contains(t, html, "343,00")
	assert.Contains(t, html, "20 juin 2025")
	assert.True(t, strings.Contains(html, "DV-2506-0007"))
}

func TestNewRendererRequiresClient(t *testing.T) {
	_, err := NewRenderer(nil)
	assert.Error(t, err)
}
