package catalogue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/platform/cache"
	"github.com/venuedesk/venuedesk/internal/quote"
)

type mockRepository struct {
	mu        sync.Mutex
	formulas  map[string]quote.FormulaDefinition
	order     []string
	options   map[string]quote.QuoteItem
	listCalls int

	listError   error
	upsertError error
	beforeList  func(ctx context.Context) error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		formulas: make(map[string]quote.FormulaDefinition),
		options:  make(map[string]quote.QuoteItem),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	formulas := make(map[string]quote.FormulaDefinition, len(m.formulas))
	for k, v := range m.formulas {
		formulas[k] = v
	}
	options := make(map[string]quote.QuoteItem, len(m.options))
	for k, v := range m.options {
		options[k] = v
	}
	order := append([]string(nil), m.order...)
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.formulas, m.options, m.order = formulas, options, order
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockRepository) ListFormulas(ctx context.Context) ([]quote.FormulaDefinition, error) {
	if m.beforeList != nil {
		if err := m.beforeList(ctx); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listError != nil {
		return nil, m.listError
	}
	var out []quote.FormulaDefinition
	for _, id := range m.order {
		if f, ok := m.formulas[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockRepository) ListOptions(ctx context.Context) ([]quote.QuoteItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []quote.QuoteItem
	for _, o := range m.options {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) UpsertFormula(ctx context.Context, f quote.FormulaDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertError != nil {
		return m.upsertError
	}
	if _, ok := m.formulas[f.ID]; !ok {
		m.order = append(m.order, f.ID)
	}
	m.formulas[f.ID] = f
	return nil
}

func (m *mockRepository) DeleteFormula(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.formulas[id]; !ok {
		return ErrNotFound
	}
	delete(m.formulas, id)
	return nil
}

func (m *mockRepository) UpsertOption(ctx context.Context, item quote.QuoteItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertError != nil {
		return m.upsertError
	}
	m.options[item.Name] = item
	return nil
}

func (m *mockRepository) DeleteOption(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.options[name]; !ok {
		return ErrNotFound
	}
	delete(m.options, name)
	return nil
}

func (m *mockRepository) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formulas = make(map[string]quote.FormulaDefinition)
	m.options = make(map[string]quote.QuoteItem)
	m.order = nil
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMockRepository()
	return NewService(repo, cache.NewVersioned(client, "catalogue", time.Minute), discardLogger()), repo
}

var tapas = quote.FormulaDefinition{
	ID: "TAPAS_1", Name: "Tapas 1", Type: quote.FormulaTypeTapas, Menu: quote.MenuStandard,
	PriceTTC: 49, Part10HT: 36.36, Part20HT: 7.5,
}

func TestCatalogueFallsBackToSeedWhenEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	cat, err := svc.Catalogue(context.Background())
	require.NoError(t, err)
	seed := quote.SeedCatalogue()
	require.Len(t, cat.Formulas, len(seed.Formulas))
	require.Len(t, cat.Options, len(seed.Options))
	for i, f := range seed.Formulas {
		assert.Equal(t, f.ID, cat.Formulas[i].ID)
		assert.Equal(t, f.PriceTTC, cat.Formulas[i].PriceTTC)
	}
}

func TestCatalogueIsCachedUntilWrite(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertFormula(ctx, tapas))

	first, err := svc.Catalogue(ctx)
	require.NoError(t, err)
	_, err = svc.Catalogue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	require.Len(t, first.Formulas, 1)

	updated := tapas
	updated.PriceTTC = 52
	_, err = svc.SaveFormula(ctx, updated)
	require.NoError(t, err)

	second, err := svc.Catalogue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Equal(t, 52.0, second.Formulas[0].PriceTTC)
}

func TestCatalogueWithoutCache(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, discardLogger())
	require.NoError(t, repo.UpsertFormula(context.Background(), tapas))

	cat, err := svc.Catalogue(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat.Formulas, 1)
}

func TestCatalogueLoadErrorPropagates(t *testing.T) {
	svc, repo := newTestService(t)
	repo.listError = errors.New("db down")

	_, err := svc.Catalogue(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestSaveFormulaReturnsConsistencyWarning(t *testing.T) {
	svc, _ := newTestService(t)

	warnings, err := svc.SaveFormula(context.Background(), tapas)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	off := tapas
	off.ID = "TAPAS_X"
	off.PriceTTC = 50
	warnings, err = svc.SaveFormula(context.Background(), off)
	require.NoError(t, err)
	assert.Equal(t, []string{WarningPriceMismatch}, warnings)
}

func TestSaveFormulaValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bad := tapas
	bad.Type = "BUFFET"
	_, err := svc.SaveFormula(ctx, bad)
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	badDay := tapas
	badDay.Restrictions = &quote.Restrictions{Days: []int{7}}
	_, err = svc.SaveFormula(ctx, badDay)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveFormula(ctx, quote.FormulaDefinition{Name: "No id", Type: quote.FormulaTypeTapas})
	assert.ErrorAs(t, err, &verrs)
}

func TestSaveOptionValidatesRate(t *testing.T) {
	svc, repo := newTestService(t)
	err := svc.SaveOption(context.Background(), quote.QuoteItem{Name: "Champagne", Price: 60, VATRate: 120})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Empty(t, repo.options)

	require.NoError(t, svc.SaveOption(context.Background(), quote.QuoteItem{Name: "Champagne", Price: 60, VATRate: 20}))
	assert.Contains(t, repo.options, "Champagne")
}

func TestDeleteMissingEntries(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.DeleteFormula(context.Background(), "NOPE"), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteOption(context.Background(), "Nope"), ErrNotFound)
}

func TestImportReplacesCatalogue(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertFormula(ctx, quote.FormulaDefinition{ID: "OLD", Name: "Old", Type: quote.FormulaTypeTapas}))

	seed := quote.SeedCatalogue()
	warnings, err := svc.Import(ctx, seed)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	cat, err := svc.Catalogue(ctx)
	require.NoError(t, err)
	require.Len(t, cat.Formulas, len(seed.Formulas))
	assert.Equal(t, seed.Formulas[0].ID, cat.Formulas[0].ID)
	_, ok := cat.Formula("OLD")
	assert.False(t, ok)
}

func TestImportRollsBackOnFailure(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertFormula(ctx, tapas))
	repo.upsertError = errors.New("disk full")

	_, err := svc.Import(ctx, quote.SeedCatalogue())
	require.Error(t, err)
	assert.Contains(t, repo.formulas, tapas.ID)
}

func TestCatalogueConcurrentMissesShareLoad(t *testing.T) {
	svc, repo := newTestService(t)
	require.NoError(t, repo.UpsertFormula(context.Background(), tapas))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cat, err := svc.Catalogue(context.Background())
			assert.NoError(t, err)
			assert.Len(t, cat.Formulas, 1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, repo.listCalls, 8)
	assert.GreaterOrEqual(t, repo.listCalls, 1)
}

func TestCatalogueLoadOutlivesCancelledCaller(t *testing.T) {
	svc, repo := newTestService(t)
	require.NoError(t, repo.UpsertFormula(context.Background(), tapas))

	started := make(chan struct{})
	release := make(chan struct{})
	loaderErr := make(chan error, 1)
	var once sync.Once
	repo.beforeList = func(ctx context.Context) error {
		first := false
		once.Do(func() {
			first = true
			close(started)
		})
		<-release
		if first {
			loaderErr <- ctx.Err()
		}
		return ctx.Err()
	}

	callerCtx, cancel := context.WithCancel(context.Background())
	callerErr := make(chan error, 1)
	go func() {
		_, err := svc.Catalogue(callerCtx)
		callerErr <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-callerErr, context.Canceled)
	close(release)
	assert.NoError(t, <-loaderErr)

	cat, err := svc.Catalogue(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Formulas, 1)
	assert.Equal(t, "TAPAS_1", cat.Formulas[0].ID)
}
