package catalogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/quote"
)

func newTestRouter(t *testing.T) (http.Handler, *mockRepository) {
	t.Helper()
	svc, repo := newTestService(t)
	h := NewHandler(discardLogger(), svc)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	r.Route("/admin", h.MountAdminRoutes)
	return r, repo
}

func TestHandlerGetCatalogue(t *testing.T) {
	router, repo := newTestRouter(t)
	require.NoError(t, repo.UpsertFormula(context.Background(), tapas))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/catalogue", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var cat quote.Catalogue
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cat))
	require.Len(t, cat.Formulas, 1)
	assert.Equal(t, "TAPAS_1", cat.Formulas[0].ID)
}

func TestHandlerPutFormula(t *testing.T) {
	router, repo := newTestRouter(t)

	body := `{"name":"Tapas 1","type":"TAPAS","priceTtc":50,"part10Ht":36.36,"part20Ht":7.5}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/catalogue/formulas/TAPAS_1", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp saveFormulaResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "TAPAS_1", resp.Formula.ID)
	assert.Equal(t, []string{WarningPriceMismatch}, resp.Warnings)
	assert.Contains(t, repo.formulas, "TAPAS_1")
}

func TestHandlerPutFormulaRejectsMismatchedID(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"id":"OTHER","name":"Tapas 1","type":"TAPAS","priceTtc":49}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/catalogue/formulas/TAPAS_1", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerPutFormulaValidationProblem(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"name":"Tapas 1","type":"BUFFET","priceTtc":49}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/catalogue/formulas/TAPAS_1", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "FormulaDefinition.Type")
}

func TestHandlerOptionLifecycle(t *testing.T) {
	router, repo := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/catalogue/options/Champagne",
		strings.NewReader(`{"price":60,"vatRate":20,"category":"boissons"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 60.0, repo.options["Champagne"].Price)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/admin/catalogue/options/Champagne", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/admin/catalogue/options/Champagne", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerOptionNameWithSlash(t *testing.T) {
	router, repo := newTestRouter(t)
	name := "Forfait vins (1 bouteille / 3 pers.)"
	path := "/admin/catalogue/options/" + url.PathEscape(name)

	rr := httptest.NewRecorder()
	body := `{"price":9,"vatRate":20,"category":"drink"}`
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, path, strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, repo.options, name)
	assert.Equal(t, 9.0, repo.options[name].Price)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	assert.NotContains(t, repo.options, name)
}

func TestHandlerRejectsMalformedEscape(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/admin/catalogue/options/x", nil)
	req.URL.RawPath = "/admin/catalogue/options/%zz"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
