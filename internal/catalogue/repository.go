package catalogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/quote"
)

// ErrNotFound is returned when a formula or option does not exist.
var ErrNotFound = errors.New("catalogue: not found")

// Repository persists the formulas and options quotes are priced against.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	ListFormulas(ctx context.Context) ([]quote.FormulaDefinition, error)
	ListOptions(ctx context.Context) ([]quote.QuoteItem, error)
	UpsertFormula(ctx context.Context, f quote.FormulaDefinition) error
	DeleteFormula(ctx context.Context, id string) error
	UpsertOption(ctx context.Context, item quote.QuoteItem) error
	DeleteOption(ctx context.Context, name string) error
	Clear(ctx context.Context) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx backed catalogue repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) ListFormulas(ctx context.Context) ([]quote.FormulaDefinition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, type, menu, for_children, price_ttc, part10_ht, part20_ht,
		       restrictions, included, description
		FROM catalogue_formulas
		ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var formulas []quote.FormulaDefinition
	for rows.Next() {
		var (
			f            quote.FormulaDefinition
			restrictions []byte
			included     []byte
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Type, &f.Menu, &f.ForChildren, &f.PriceTTC,
			&f.Part10HT, &f.Part20HT, &restrictions, &included, &f.Description); err != nil {
			return nil, err
		}
		if len(restrictions) > 0 {
			f.Restrictions = &quote.Restrictions{}
			if err := json.Unmarshal(restrictions, f.Restrictions); err != nil {
				return nil, fmt.Errorf("decode restrictions of %s: %w", f.ID, err)
			}
		}
		if len(included) > 0 {
			if err := json.Unmarshal(included, &f.Included); err != nil {
				return nil, fmt.Errorf("decode included of %s: %w", f.ID, err)
			}
		}
		formulas = append(formulas, f)
	}
	return formulas, rows.Err()
}

func (r *repository) ListOptions(ctx context.Context) ([]quote.QuoteItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, price, vat_rate, category
		FROM catalogue_options
		ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []quote.QuoteItem
	for rows.Next() {
		var item quote.QuoteItem
		if err := rows.Scan(&item.Name, &item.Price, &item.VATRate, &item.Category); err != nil {
			return nil, err
		}
		options = append(options, item)
	}
	return options, rows.Err()
}

func (r *repository) UpsertFormula(ctx context.Context, f quote.FormulaDefinition) error {
	var restrictions []byte
	if f.Restrictions != nil {
		raw, err := json.Marshal(f.Restrictions)
		if err != nil {
			return err
		}
		restrictions = raw
	}
	included := f.Included
	if included == nil {
		included = []string{}
	}
	includedRaw, err := json.Marshal(included)
	if err != nil {
		return err
	}
	menu := f.Menu
	if menu == "" {
		menu = quote.MenuStandard
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO catalogue_formulas (id, position, name, type, menu, for_children, price_ttc,
		                                part10_ht, part20_ht, restrictions, included, description)
		VALUES ($1, COALESCE((SELECT MAX(position) + 1 FROM catalogue_formulas), 0),
		        $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			menu = EXCLUDED.menu,
			for_children = EXCLUDED.for_children,
			price_ttc = EXCLUDED.price_ttc,
			part10_ht = EXCLUDED.part10_ht,
			part20_ht = EXCLUDED.part20_ht,
			restrictions = EXCLUDED.restrictions,
			included = EXCLUDED.included,
			description = EXCLUDED.description,
			updated_at = NOW()`,
		f.ID, f.Name, string(f.Type), string(menu), f.ForChildren, f.PriceTTC,
		f.Part10HT, f.Part20HT, restrictions, includedRaw, f.Description)
	return err
}

func (r *repository) DeleteFormula(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM catalogue_formulas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpsertOption(ctx context.Context, item quote.QuoteItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO catalogue_options (name, position, price, vat_rate, category)
		VALUES ($1, COALESCE((SELECT MAX(position) + 1 FROM catalogue_options), 0), $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			price = EXCLUDED.price,
			vat_rate = EXCLUDED.vat_rate,
			category = EXCLUDED.category,
			updated_at = NOW()`,
		item.Name, item.Price, item.VATRate, item.Category)
	return err
}

func (r *repository) DeleteOption(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM catalogue_options WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM catalogue_options`); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM catalogue_formulas`)
	return err
}
