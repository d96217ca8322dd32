package invoices

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
)

// Repository persists invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	LockLead(ctx context.Context, leadID uuid.UUID) (LeadState, error)
	MarkLeadInvoiced(ctx context.Context, leadID uuid.UUID) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetForUpdate(ctx context.Context, id int64) (*Invoice, error)
	SetPaid(ctx context.Context, id int64, paidAt time.Time) error
	List(ctx context.Context, req ListRequest) ([]Invoice, int, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx backed invoice repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) LockLead(ctx context.Context, leadID uuid.UUID) (LeadState, error) {
	var (
		state  LeadState
		totals []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT reference, status, version, totals FROM leads WHERE id = $1 FOR UPDATE`, leadID).
		Scan(&state.Reference, &state.Status, &state.Version, &totals)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeadState{}, ErrLeadNotFound
	}
	if err != nil {
		return LeadState{}, err
	}
	if err := json.Unmarshal(totals, &state.Totals); err != nil {
		return LeadState{}, fmt.Errorf("decode totals of %s: %w", state.Reference, err)
	}
	return state, nil
}

func (r *repository) MarkLeadInvoiced(ctx context.Context, leadID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET status = 'INVOICED', updated_at = NOW() WHERE id = $1`, leadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// GenerateNumber allocates the next FA-{YY}{MM}-{SEQ} invoice number of the month.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "FA", date.Format("200601")).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FA-%s-%04d", date.Format("0601"), seq), nil
}

func (r *repository) Create(ctx context.Context, inv *Invoice) error {
	totals, err := json.Marshal(inv.Totals)
	if err != nil {
		return fmt.Errorf("encode totals: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO invoices (number, lead_id, lead_version, status, total_ttc, total_ht, total_tva,
			deposit, balance, totals, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		inv.Number, inv.LeadID, inv.LeadVersion, string(inv.Status), inv.Totals.TotalTTC, inv.Totals.TotalHT,
		inv.Totals.TotalTVA, inv.Totals.Deposit, inv.Balance, totals, inv.IssuedAt,
	).Scan(&inv.ID)
	if db.IsUniqueViolation(err) {
		return ErrAlreadyInvoiced
	}
	return err
}

const invoiceColumns = `id, number, lead_id, lead_version, status, totals, balance, issued_at, paid_at`

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, query string, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (r *repository) SetPaid(ctx context.Context, id int64, paidAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $2, paid_at = $3 WHERE id = $1`, id, string(StatusPaid), paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	var (
		where []string
		args  []any
	)
	if req.Status != nil {
		args = append(args, string(*req.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, req.Limit, req.Offset)
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices`+clause+
		fmt.Sprintf(" ORDER BY issued_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv    Invoice
		status string
		totals []byte
	)
	if err := row.Scan(&inv.ID, &inv.Number, &inv.LeadID, &inv.LeadVersion, &status, &totals,
		&inv.Balance, &inv.IssuedAt, &inv.PaidAt); err != nil {
		return nil, err
	}
	inv.Status = Status(status)
	if err := json.Unmarshal(totals, &inv.Totals); err != nil {
		return nil, fmt.Errorf("decode totals of %s: %w", inv.Number, err)
	}
	return &inv, nil
}
