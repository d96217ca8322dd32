package invoices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/leads"
	"github.com/venuedesk/venuedesk/internal/quote"
	"github.com/venuedesk/venuedesk/report"
)

type mockRepository struct {
	mu       sync.Mutex
	leads    map[uuid.UUID]LeadState
	invoices map[int64]Invoice
	seq      int
	nextID   int64

	createError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{leads: make(map[uuid.UUID]LeadState), invoices: make(map[int64]Invoice)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	leadsCopy := make(map[uuid.UUID]LeadState, len(m.leads))
	for k, v := range m.leads {
		leadsCopy[k] = v
	}
	invoices := make(map[int64]Invoice, len(m.invoices))
	for k, v := range m.invoices {
		invoices[k] = v
	}
	seq, nextID := m.seq, m.nextID
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.leads, m.invoices, m.seq, m.nextID = leadsCopy, invoices, seq, nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockRepository) LockLead(ctx context.Context, leadID uuid.UUID) (LeadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.leads[leadID]
	if !ok {
		return LeadState{}, ErrLeadNotFound
	}
	return state, nil
}

func (m *mockRepository) MarkLeadInvoiced(ctx context.Context, leadID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.leads[leadID]
	if !ok {
		return ErrLeadNotFound
	}
	state.Status = string(leads.StatusInvoiced)
	m.leads[leadID] = state
	return nil
}

func (m *mockRepository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("FA-%s-%04d", date.Format("0601"), m.seq), nil
}

func (m *mockRepository) Create(ctx context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	inv.ID = m.nextID
	m.invoices[inv.ID] = *inv
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) SetPaid(ctx context.Context, id int64, paidAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status, inv.PaidAt = StatusPaid, &paidAt
	m.invoices[id] = inv
	return nil
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, total, nil
}

type fakeLeads struct {
	leads map[uuid.UUID]*leads.Lead
}

func (f *fakeLeads) Get(ctx context.Context, id uuid.UUID) (*leads.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, leads.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeads) Catalogue(ctx context.Context) (quote.Catalogue, error) {
	return quote.SeedCatalogue(), nil
}

type fakeRenderer struct {
	docs []report.InvoiceDocument
	err  error
}

func (f *fakeRenderer) RenderInvoice(ctx context.Context, doc report.InvoiceDocument) ([]byte, error) {
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 invoice"), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc      *Service
	repo     *mockRepository
	leads    *fakeLeads
	renderer *fakeRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMockRepository(),
		leads:    &fakeLeads{leads: make(map[uuid.UUID]*leads.Lead)},
		renderer: &fakeRenderer{},
	}
	f.svc = NewService(f.repo, f.leads, f.renderer, discardLogger())
	f.svc.now = func() time.Time { return time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) addLead(status leads.Status) uuid.UUID {
	id := uuid.New()
	totals := quote.Totals{TotalTTC: 490, TotalHT: 425.55, TotalTVA: 64.45, Deposit: 147}
	f.repo.leads[id] = LeadState{Reference: "DV-2506-0001", Status: string(status), Version: 3, Totals: totals}
	f.leads.leads[id] = &leads.Lead{
		ID:        id,
		Reference: "DV-2506-0001",
		Status:    status,
		Version:   3,
		Contact:   leads.Contact{FirstName: "Camille", LastName: "Martin", Email: "camille@example.com"},
		Selection: quote.Selection{
			Event: quote.EventContext{Date: quote.NewDate(2025, time.June, 10), Service: quote.ServiceDinner1, Adults: 10},
		},
		Totals: totals,
	}
	return id
}

func TestIssueSnapshotsConfirmedLead(t *testing.T) {
	f := newFixture(t)
	leadID := f.addLead(leads.StatusConfirmed)

	inv, err := f.svc.Issue(context.Background(), leadID)
	require.NoError(t, err)
	assert.Equal(t, "FA-2507-0001", inv.Number)
	assert.Equal(t, StatusIssued, inv.Status)
	assert.Equal(t, 3, inv.LeadVersion)
	assert.InDelta(t, 343.0, inv.Balance, 0.001)
	assert.Equal(t, string(leads.StatusInvoiced), f.repo.leads[leadID].Status)
}

func TestIssueRejectsUnconfirmedLeads(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Issue(context.Background(), f.addLead(leads.StatusQuoteSent))
	assert.ErrorIs(t, err, ErrNotConfirmed)

	_, err = f.svc.Issue(context.Background(), f.addLead(leads.StatusInvoiced))
	assert.ErrorIs(t, err, ErrAlreadyInvoiced)

	_, err = f.svc.Issue(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrLeadNotFound)
	assert.Empty(t, f.repo.invoices)
}

func TestIssueRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	leadID := f.addLead(leads.StatusConfirmed)
	f.repo.createError = errors.New("insert failed")

	_, err := f.svc.Issue(context.Background(), leadID)
	require.Error(t, err)
	assert.Equal(t, string(leads.StatusConfirmed), f.repo.leads[leadID].Status)
	assert.Equal(t, 0, f.repo.seq)
}

func TestMarkPaidOnce(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.Issue(context.Background(), f.addLead(leads.StatusConfirmed))
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.MarkPaid(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = f.svc.MarkPaid(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPDFBuildsDocument(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.Issue(context.Background(), f.addLead(leads.StatusConfirmed))
	require.NoError(t, err)

	_, pdf, err := f.svc.PDF(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 invoice", string(pdf))
	require.Len(t, f.renderer.docs, 1)
	doc := f.renderer.docs[0]
	assert.Equal(t, inv.Number, doc.Number)
	assert.Equal(t, "DV-2506-0001", doc.QuoteReference)
	assert.Equal(t, 3, doc.QuoteVersion)
	assert.Equal(t, "Camille Martin", doc.Customer.FullName())
	assert.InDelta(t, 343.0, doc.Balance, 0.001)
}
