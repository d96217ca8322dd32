package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/venuedesk/venuedesk/internal/jobs"
	"github.com/venuedesk/venuedesk/internal/leads"
	"github.com/venuedesk/venuedesk/internal/quote"
	"github.com/venuedesk/venuedesk/internal/storage"
	"github.com/venuedesk/venuedesk/report"
)

// QuoteSource is the lead side of quote rendering.
type QuoteSource interface {
	Get(ctx context.Context, id uuid.UUID) (*leads.Lead, error)
	Catalogue(ctx context.Context) (quote.Catalogue, error)
	AttachQuotePDF(ctx context.Context, id uuid.UUID, version int, url string) (bool, error)
}

// QuoteRenderer produces quote PDFs.
type QuoteRenderer interface {
	RenderQuote(ctx context.Context, doc report.QuoteDocument) ([]byte, error)
}

// NoteSource supplies the deposit note printed on quotes.
type NoteSource interface {
	DepositNote(ctx context.Context) string
}

// QuotePDFJob renders the quote of one lead version and stores it.
type QuotePDFJob struct {
	Leads    QuoteSource
	Renderer QuoteRenderer
	Store    storage.Store
	Notes    NoteSource
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// Handle processes TaskQuotePDF tasks.
func (j *QuotePDFJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload QuotePDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	id, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("lead id %q: %w", payload.LeadID, asynq.SkipRetry)
	}

	lead, err := j.Leads.Get(ctx, id)
	if errors.Is(err, leads.ErrNotFound) {
		return fmt.Errorf("lead %s: %w", id, asynq.SkipRetry)
	}
	if err != nil {
		return j.Metrics.Track(TaskQuotePDF).End(err)
	}
	if lead.Version != payload.Version {
		j.Metrics.Skipped(TaskQuotePDF, "stale_version")
		return nil
	}
	if lead.HasCurrentPDF() {
		j.Metrics.Skipped(TaskQuotePDF, "already_stored")
		return nil
	}

	tracker := j.Metrics.Track(TaskQuotePDF)
	defer func() {
		err = tracker.End(err)
	}()

	cat, err := j.Leads.Catalogue(ctx)
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}
	note := ""
	if j.Notes != nil {
		note = j.Notes.DepositNote(ctx)
	}
	pdf, err := j.Renderer.RenderQuote(ctx, lead.QuoteDocument(cat, j.now(), note))
	if err != nil {
		return err
	}

	key := fmt.Sprintf("quotes/%s/%s-v%d.pdf", lead.CreatedAt.UTC().Format("2006/01"), lead.Reference, lead.Version)
	url, err := j.Store.Put(ctx, key, pdf, "application/pdf")
	if err != nil {
		return err
	}
	logger := j.logger().With(slog.String("reference", lead.Reference), slog.Int("version", lead.Version))
	if url == "" {
		logger.Debug("quote pdf rendered without storage")
		return nil
	}
	attached, err := j.Leads.AttachQuotePDF(ctx, id, lead.Version, url)
	if err != nil {
		return err
	}
	if !attached {
		logger.Info("quote pdf superseded before attach", slog.String("url", url))
		return nil
	}
	logger.Info("quote pdf stored", slog.String("url", url), slog.Int("bytes", len(pdf)))
	return nil
}

func (j *QuotePDFJob) now() time.Time {
	if j.clock == nil {
		return time.Now()
	}
	return j.clock()
}

func (j *QuotePDFJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
