package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/shared"
)

const idempotencyModule = "leads.submit"

// Repository persists leads.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, lead *Lead) error
	Get(ctx context.Context, id uuid.UUID) (*Lead, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, req ListRequest) ([]Lead, int, error)
	UpdateSelection(ctx context.Context, lead *Lead) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetQuotePDF(ctx context.Context, id uuid.UUID, version int, url string) (bool, error)
	GenerateReference(ctx context.Context, date time.Time) (string, error)
	ClaimSubmission(ctx context.Context, key string, id uuid.UUID) (uuid.UUID, bool, error)
}

type repository struct {
	db          db.DBTX
	pool        *pgxpool.Pool
	idempotency *shared.IdempotencyStore
}

// NewRepository constructs the pgx backed lead repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool, idempotency: shared.NewIdempotencyStore(pool)}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool, idempotency: r.idempotency.WithTx(tx)})
	})
}

const leadColumns = `id, reference, status, version, first_name, last_name, email, phone, company,
	message, selection, totals, quote_pdf_url, quote_pdf_version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, lead *Lead) error {
	selection, totals, err := encodeQuote(lead)
	if err != nil {
		return err
	}
	ev := lead.Selection.Event
	return r.db.QueryRow(ctx, `
		INSERT INTO leads (id, reference, status, version, first_name, last_name, email, phone, company,
		                   message, event_date, service, adults, children, selection, totals, total_ttc, deposit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`,
		lead.ID, lead.Reference, string(lead.Status), lead.Version,
		lead.Contact.FirstName, lead.Contact.LastName, lead.Contact.Email, lead.Contact.Phone, lead.Contact.Company,
		lead.Message, ev.Date.Time, string(ev.Service), ev.Adults, ev.Children,
		selection, totals, lead.Totals.TotalTTC, lead.Totals.Deposit,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return r.get(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return r.get(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, query string, id uuid.UUID) (*Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Lead, int, error) {
	var (
		conditions []string
		args       []any
	)
	if req.Status != nil {
		args = append(args, string(*req.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM leads "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, req.Limit, req.Offset)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC, reference DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *lead)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateSelection(ctx context.Context, lead *Lead) error {
	selection, totals, err := encodeQuote(lead)
	if err != nil {
		return err
	}
	ev := lead.Selection.Event
	return r.db.QueryRow(ctx, `
		UPDATE leads SET version = $2, event_date = $3, service = $4, adults = $5, children = $6,
		                 selection = $7, totals = $8, total_ttc = $9, deposit = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		lead.ID, lead.Version, ev.Date.Time, string(ev.Service), ev.Adults, ev.Children,
		selection, totals, lead.Totals.TotalTTC, lead.Totals.Deposit,
	).Scan(&lead.UpdatedAt)
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetQuotePDF records the stored PDF unless a newer version was already recorded.
func (r *repository) SetQuotePDF(ctx context.Context, id uuid.UUID, version int, url string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET quote_pdf_url = $3, quote_pdf_version = $2
		WHERE id = $1 AND version = $2 AND quote_pdf_version <= $2`, id, version, url)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GenerateReference allocates the next DV-{YY}{MM}-{SEQ} reference of the month.
func (r *repository) GenerateReference(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "DV", date.Format("200601")).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DV-%s-%04d", date.Format("0601"), seq), nil
}

// ClaimSubmission binds an idempotency key to id. When the key was used before it returns the
// lead created then and false.
func (r *repository) ClaimSubmission(ctx context.Context, key string, id uuid.UUID) (uuid.UUID, bool, error) {
	ref, err := r.idempotency.Claim(ctx, key, idempotencyModule, id.String())
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		existing, perr := uuid.Parse(ref)
		if perr != nil {
			return uuid.Nil, false, fmt.Errorf("stored idempotency ref %q: %w", ref, perr)
		}
		return existing, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func encodeQuote(lead *Lead) ([]byte, []byte, error) {
	selection, err := json.Marshal(lead.Selection)
	if err != nil {
		return nil, nil, fmt.Errorf("encode selection: %w", err)
	}
	totals, err := json.Marshal(lead.Totals)
	if err != nil {
		return nil, nil, fmt.Errorf("encode totals: %w", err)
	}
	return selection, totals, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead      Lead
		status    string
		selection []byte
		totals    []byte
	)
	err := row.Scan(&lead.ID, &lead.Reference, &status, &lead.Version,
		&lead.Contact.FirstName, &lead.Contact.LastName, &lead.Contact.Email, &lead.Contact.Phone, &lead.Contact.Company,
		&lead.Message, &selection, &totals, &lead.QuotePDFURL, &lead.QuotePDFVersion, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lead.Status = Status(status)
	if err := json.Unmarshal(selection, &lead.Selection); err != nil {
		return nil, fmt.Errorf("decode selection of %s: %w", lead.Reference, err)
	}
	if err := json.Unmarshal(totals, &lead.Totals); err != nil {
		return nil, fmt.Errorf("decode totals of %s: %w", lead.Reference, err)
	}
	return &lead, nil
}
