package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/venuedesk/venuedesk/internal/jobs"
	"github.com/venuedesk/venuedesk/internal/leads"
	"github.com/venuedesk/venuedesk/internal/money"
	"github.com/venuedesk/venuedesk/internal/settings"
)

// LeadLoader reads leads for background processing.
type LeadLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*leads.Lead, error)
}

// SettingsSource reads notification settings.
type SettingsSource interface {
	Notification(ctx context.Context) (settings.Notification, error)
}

// LeadNotifyJob e-mails the venue, and optionally the customer, about a new quote request.
type LeadNotifyJob struct {
	Leads    LeadLoader
	Settings SettingsSource
	Mailer   Mailer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle processes TaskLeadNotify tasks.
func (j *LeadNotifyJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload LeadNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	id, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("lead id %q: %w", payload.LeadID, asynq.SkipRetry)
	}

	conf, err := j.Settings.Notification(ctx)
	if err != nil {
		return j.Metrics.Track(TaskLeadNotify).End(err)
	}
	if !conf.NotifyOnNewLead {
		j.Metrics.Skipped(TaskLeadNotify, "disabled")
		return nil
	}
	if len(conf.Recipients) == 0 && !conf.CopyCustomer {
		j.Metrics.Skipped(TaskLeadNotify, "no_recipients")
		return nil
	}

	tracker := j.Metrics.Track(TaskLeadNotify)
	defer func() {
		err = tracker.End(err)
	}()

	lead, err := j.Leads.Get(ctx, id)
	if errors.Is(err, leads.ErrNotFound) {
		return fmt.Errorf("lead %s: %w", id, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	logger := j.logger().With(slog.String("reference", lead.Reference))
	if len(conf.Recipients) > 0 {
		if err := j.Mailer.Send(ctx, Message{
			To:      conf.Recipients,
			ReplyTo: lead.Contact.Email,
			Subject: fmt.Sprintf("Nouvelle demande de devis %s", lead.Reference),
			Body:    leadSummary(lead, conf.DepositPercentNote),
		}); err != nil {
			return fmt.Errorf("send lead notification: %w", err)
		}
	}
	if conf.CopyCustomer {
		if err := j.Mailer.Send(ctx, Message{
			To:      []string{lead.Contact.Email},
			Subject: fmt.Sprintf("Votre demande de devis %s", lead.Reference),
			Body:    customerCopy(lead, conf.DepositPercentNote),
		}); err != nil {
			return fmt.Errorf("send customer copy: %w", err)
		}
	}
	logger.Info("lead notification sent", slog.Int("recipients", len(conf.Recipients)), slog.Bool("customer_copy", conf.CopyCustomer))
	return nil
}

func (j *LeadNotifyJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func eventLines(b *strings.Builder, lead *leads.Lead) {
	ev := lead.Selection.Event
	fmt.Fprintf(b, "Date : %s\n", ev.Date.Format("02/01/2006"))
	fmt.Fprintf(b, "Service : %s\n", ev.Service)
	fmt.Fprintf(b, "Convives : %d adulte(s), %d enfant(s)\n", ev.Adults, ev.Children)
	for _, line := range lead.Selection.Formulas {
		fmt.Fprintf(b, "- %s x %d\n", line.Formula.Name, line.Quantity)
	}
	for _, item := range lead.Selection.Options {
		fmt.Fprintf(b, "- %s x %d\n", item.Name, item.Quantity)
	}
	fmt.Fprintf(b, "Total TTC : %s\n", money.French.Amount(lead.Totals.TotalTTC))
	fmt.Fprintf(b, "Acompte : %s\n", money.French.Amount(lead.Totals.Deposit))
}

func leadSummary(lead *leads.Lead, depositNote string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Demande %s (version %d)\n\n", lead.Reference, lead.Version)
	fmt.Fprintf(&b, "Client : %s <%s>\n", lead.Contact.Party().FullName(), lead.Contact.Email)
	if lead.Contact.Phone != "" {
		fmt.Fprintf(&b, "Téléphone : %s\n", lead.Contact.Phone)
	}
	if lead.Contact.Company != "" {
		fmt.Fprintf(&b, "Société : %s\n", lead.Contact.Company)
	}
	b.WriteString("\n")
	eventLines(&b, lead)
	if depositNote != "" {
		fmt.Fprintf(&b, "%s\n", depositNote)
	}
	if lead.Message != "" {
		fmt.Fprintf(&b, "\nMessage :\n%s\n", lead.Message)
	}
	return b.String()
}

func customerCopy(lead *leads.Lead, depositNote string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bonjour %s,\n\n", lead.Contact.FirstName)
	fmt.Fprintf(&b, "Nous avons bien reçu votre demande %s. Récapitulatif :\n\n", lead.Reference)
	eventLines(&b, lead)
	if depositNote != "" {
		fmt.Fprintf(&b, "%s\n", depositNote)
	}
	b.WriteString("\nNous revenons vers vous rapidement.\n")
	return b.String()
}
