package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/venuedesk/venuedesk/internal/money"
	"github.com/venuedesk/venuedesk/internal/quote"
	"github.com/venuedesk/venuedesk/web"
)

// PDFClient exposes the subset of the report client used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

var serviceLabels = map[quote.Service]string{
	quote.ServiceLunch:      "Déjeuner",
	quote.ServiceDinner1:    "Dîner (1er service)",
	quote.ServiceDinner2:    "Dîner (2e service)",
	quote.ServiceDinnerFull: "Dîner (soirée complète)",
}

var months = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet",
	"août", "septembre", "octobre", "novembre", "décembre"}

// Renderer turns quote and invoice documents into PDFs via html/template and Gotenberg.
type Renderer struct {
	tpl    *template.Template
	client PDFClient
}

// NewRenderer parses the document templates and wires the PDF client.
func NewRenderer(client PDFClient) (*Renderer, error) {
	if client == nil {
		return nil, fmt.Errorf("report renderer: pdf client required")
	}
	f := money.French
	funcMap := template.FuncMap{
		"amount":  f.Amount,
		"percent": f.Percent,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
		},
		"serviceLabel": func(s quote.Service) string {
			if label, ok := serviceLabels[s]; ok {
				return label
			}
			return string(s)
		},
	}
	tpl, err := template.New("report").Funcs(funcMap).ParseFS(web.Templates, "templates/report/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, client: client}, nil
}

// QuoteHTML executes the quote template.
func (r *Renderer) QuoteHTML(doc QuoteDocument) (string, error) {
	return r.execute("quote.html", doc)
}

// InvoiceHTML executes the invoice template.
func (r *Renderer) InvoiceHTML(doc InvoiceDocument) (string, error) {
	return r.execute("invoice.html", doc)
}

// RenderQuote produces the quote PDF.
func (r *Renderer) RenderQuote(ctx context.Context, doc QuoteDocument) ([]byte, error) {
	html, err := r.QuoteHTML(doc)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

// RenderInvoice produces the invoice PDF.
func (r *Renderer) RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error) {
	html, err := r.InvoiceHTML(doc)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	if r == nil || r.tpl == nil {
		return "", fmt.Errorf("report renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.tpl.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
