package catalogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/venuedesk/venuedesk/internal/platform/cache"
	"github.com/venuedesk/venuedesk/internal/quote"
)

// ErrValidation wraps rejected catalogue edits.
var ErrValidation = errors.New("catalogue: invalid entry")

// WarningPriceMismatch is returned when a formula's partial amounts do not gross up to its price.
const WarningPriceMismatch = "part10Ht*1.10 + part20Ht*1.20 does not match priceTtc"

const snapshotKey = "snapshot"

// Provider yields the catalogue quotes are priced against.
type Provider interface {
	Catalogue(ctx context.Context) (quote.Catalogue, error)
}

// Service reads and edits the catalogue. Reads go through a versioned Redis snapshot and
// every write bumps the version.
type Service struct {
	repo     Repository
	cache    *cache.Versioned
	logger   *slog.Logger
	validate *validator.Validate
	group    singleflight.Group
}

// NewService constructs the catalogue service. cache may be nil.
func NewService(repo Repository, c *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger, validate: validator.New()}
}

// Catalogue returns the current catalogue. An empty store yields the seed catalogue.
func (s *Service) Catalogue(ctx context.Context) (quote.Catalogue, error) {
	key, err := s.cache.BuildKey(ctx, snapshotKey)
	if err != nil {
		s.logger.Warn("catalogue cache unavailable", slog.Any("error", err))
		return s.load(ctx)
	}
	// The load is shared by every waiter on key, so it must outlive the caller that started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		var cat quote.Catalogue
		err := s.cache.FetchJSON(loadCtx, key, &cat, func(ctx context.Context) (any, error) {
			return s.load(ctx)
		})
		return cat, err
	})
	select {
	case <-ctx.Done():
		return quote.Catalogue{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return quote.Catalogue{}, res.Err
		}
		return res.Val.(quote.Catalogue), nil
	}
}

func (s *Service) load(ctx context.Context) (quote.Catalogue, error) {
	formulas, err := s.repo.ListFormulas(ctx)
	if err != nil {
		return quote.Catalogue{}, fmt.Errorf("list formulas: %w", err)
	}
	options, err := s.repo.ListOptions(ctx)
	if err != nil {
		return quote.Catalogue{}, fmt.Errorf("list options: %w", err)
	}
	cat := quote.Catalogue{Formulas: formulas, Options: options}
	if cat.IsEmpty() {
		s.logger.Warn("catalogue store empty, serving seed catalogue")
		return quote.SeedCatalogue(), nil
	}
	return cat, nil
}

// SaveFormula validates and stores a formula. The returned warnings do not block the save.
// Selections already made keep their own snapshot of the formula.
func (s *Service) SaveFormula(ctx context.Context, f quote.FormulaDefinition) ([]string, error) {
	if err := s.checkFormula(f); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertFormula(ctx, f); err != nil {
		return nil, fmt.Errorf("save formula %s: %w", f.ID, err)
	}
	s.invalidate(ctx)
	return formulaWarnings(f), nil
}

// DeleteFormula removes a formula.
func (s *Service) DeleteFormula(ctx context.Context, id string) error {
	if err := s.repo.DeleteFormula(ctx, id); err != nil {
		return fmt.Errorf("delete formula %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// SaveOption validates and stores an option.
func (s *Service) SaveOption(ctx context.Context, item quote.QuoteItem) error {
	if err := s.checkOption(item); err != nil {
		return err
	}
	if err := s.repo.UpsertOption(ctx, item); err != nil {
		return fmt.Errorf("save option %s: %w", item.Name, err)
	}
	s.invalidate(ctx)
	return nil
}

// DeleteOption removes an option.
func (s *Service) DeleteOption(ctx context.Context, name string) error {
	if err := s.repo.DeleteOption(ctx, name); err != nil {
		return fmt.Errorf("delete option %s: %w", name, err)
	}
	s.invalidate(ctx)
	return nil
}

// Import replaces the whole catalogue in one transaction, keeping the file order.
func (s *Service) Import(ctx context.Context, cat quote.Catalogue) (map[string][]string, error) {
	warnings := make(map[string][]string)
	for _, f := range cat.Formulas {
		if err := s.checkFormula(f); err != nil {
			return nil, err
		}
		if w := formulaWarnings(f); len(w) > 0 {
			warnings[f.ID] = w
		}
	}
	for _, item := range cat.Options {
		if err := s.checkOption(item); err != nil {
			return nil, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.Clear(ctx); err != nil {
			return fmt.Errorf("clear catalogue: %w", err)
		}
		for _, f := range cat.Formulas {
			if err := tx.UpsertFormula(ctx, f); err != nil {
				return fmt.Errorf("import formula %s: %w", f.ID, err)
			}
		}
		for _, item := range cat.Options {
			if err := tx.UpsertOption(ctx, item); err != nil {
				return fmt.Errorf("import option %s: %w", item.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return warnings, nil
}

func (s *Service) checkFormula(f quote.FormulaDefinition) error {
	if err := s.validate.Struct(f); err != nil {
		return err
	}
	if f.Restrictions != nil {
		for _, day := range f.Restrictions.Days {
			if day < 0 || day > 6 {
				return fmt.Errorf("%w: formula %s: day %d out of range", ErrValidation, f.ID, day)
			}
		}
		if f.Restrictions.MaxGuests < 0 {
			return fmt.Errorf("%w: formula %s: negative max guests", ErrValidation, f.ID)
		}
	}
	return nil
}

func (s *Service) checkOption(item quote.QuoteItem) error {
	return s.validate.Struct(item)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump catalogue cache", slog.Any("error", err))
	}
}

func formulaWarnings(f quote.FormulaDefinition) []string {
	if quote.CheckFormula(f) {
		return nil
	}
	return []string{WarningPriceMismatch}
}
