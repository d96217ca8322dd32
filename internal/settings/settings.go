// Package settings stores the back-office notification preferences.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuedesk/venuedesk/internal/platform/db"
)

// Notification controls who hears about new quote requests.
type Notification struct {
	NotifyOnNewLead    bool      `json:"notifyOnNewLead"`
	Recipients         []string  `json:"recipients" validate:"max=20,dive,required,email"`
	CopyCustomer       bool      `json:"copyCustomer"`
	DepositPercentNote string    `json:"depositPercentNote" validate:"max=500"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Repository loads and stores the single settings row.
type Repository interface {
	Get(ctx context.Context) (Notification, error)
	Save(ctx context.Context, n Notification) (Notification, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs the pgx backed settings repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Get(ctx context.Context) (Notification, error) {
	var (
		n          Notification
		recipients []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT notify_on_new_lead, recipients, copy_customer, deposit_percent_note, updated_at
		FROM notification_settings WHERE id = 1`).
		Scan(&n.NotifyOnNewLead, &recipients, &n.CopyCustomer, &n.DepositPercentNote, &n.UpdatedAt)
	if err != nil {
		return Notification{}, err
	}
	if err := json.Unmarshal(recipients, &n.Recipients); err != nil {
		return Notification{}, fmt.Errorf("decode recipients: %w", err)
	}
	return n, nil
}

func (r *repository) Save(ctx context.Context, n Notification) (Notification, error) {
	recipients := n.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	raw, err := json.Marshal(recipients)
	if err != nil {
		return Notification{}, err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO notification_settings (id, notify_on_new_lead, recipients, copy_customer, deposit_percent_note)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			notify_on_new_lead = EXCLUDED.notify_on_new_lead,
			recipients = EXCLUDED.recipients,
			copy_customer = EXCLUDED.copy_customer,
			deposit_percent_note = EXCLUDED.deposit_percent_note,
			updated_at = NOW()
		RETURNING updated_at`,
		n.NotifyOnNewLead, raw, n.CopyCustomer, n.DepositPercentNote).Scan(&n.UpdatedAt)
	if err != nil {
		return Notification{}, err
	}
	n.Recipients = recipients
	return n, nil
}

// Service validates and persists notification settings.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs the settings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Notification returns the current settings.
func (s *Service) Notification(ctx context.Context) (Notification, error) {
	n, err := s.repo.Get(ctx)
	if err != nil {
		return Notification{}, fmt.Errorf("load settings: %w", err)
	}
	return n, nil
}

// UpdateNotification replaces the settings after validation. Duplicate recipients are dropped.
func (s *Service) UpdateNotification(ctx context.Context, n Notification) (Notification, error) {
	n.Recipients = dedupe(n.Recipients)
	if err := s.validate.Struct(n); err != nil {
		return Notification{}, err
	}
	saved, err := s.repo.Save(ctx, n)
	if err != nil {
		return Notification{}, fmt.Errorf("save settings: %w", err)
	}
	return saved, nil
}

// DepositNote returns the deposit text printed on quotes, or "" when settings cannot be read.
func (s *Service) DepositNote(ctx context.Context) string {
	n, err := s.repo.Get(ctx)
	if err != nil {
		return ""
	}
	return n.DepositPercentNote
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
