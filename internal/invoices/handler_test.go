package invoices

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/leads"
)

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	r := chi.NewRouter()
	r.Route("/admin", NewHandler(discardLogger(), f.svc).MountRoutes)
	return r, f
}

func do(router http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestHandlerInvoiceLifecycle(t *testing.T) {
	router, f := newTestRouter(t)
	leadID := f.addLead(leads.StatusConfirmed)

	rr := do(router, http.MethodPost, "/admin/leads/"+leadID.String()+"/invoice")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var inv Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &inv))
	base := "/admin/invoices/" + strconv.FormatInt(inv.ID, 10)

	assert.Equal(t, http.StatusConflict, do(router, http.MethodPost, "/admin/leads/"+leadID.String()+"/invoice").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, base).Code)

	rr = do(router, http.MethodGet, base+"/invoice.pdf")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "facture-FA-2507-0001.pdf")

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, base+"/paid").Code)
	assert.Equal(t, http.StatusConflict, do(router, http.MethodPost, base+"/paid").Code)

	rr = do(router, http.MethodGet, "/admin/invoices?status=PAID")
	require.Equal(t, http.StatusOK, rr.Code)
	var page listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestHandlerInvoiceErrors(t *testing.T) {
	router, f := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/admin/invoices/abc").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/admin/invoices/42").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/admin/invoices/42/invoice.pdf").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, "/admin/leads/nope/invoice").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/admin/invoices?status=DRAFT").Code)

	leadID := f.addLead(leads.StatusNew)
	assert.Equal(t, http.StatusConflict, do(router, http.MethodPost, "/admin/leads/"+leadID.String()+"/invoice").Code)

	confirmed := f.addLead(leads.StatusConfirmed)
	rr := do(router, http.MethodPost, "/admin/leads/"+confirmed.String()+"/invoice")
	require.Equal(t, http.StatusCreated, rr.Code)
	var inv Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &inv))
	f.renderer.err = errors.New("gotenberg down")
	assert.Equal(t, http.StatusBadGateway, do(router, http.MethodGet, "/admin/invoices/"+strconv.FormatInt(inv.ID, 10)+"/invoice.pdf").Code)
}
