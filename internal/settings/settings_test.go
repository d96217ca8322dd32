package settings

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	current Notification
	saves   int
}

func (m *mockRepository) Get(ctx context.Context) (Notification, error) {
	return m.current, nil
}

func (m *mockRepository) Save(ctx context.Context, n Notification) (Notification, error) {
	m.saves++
	n.UpdatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m.current = n
	return n, nil
}

func TestUpdateNotificationDedupesRecipients(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo)

	saved, err := svc.UpdateNotification(context.Background(), Notification{
		NotifyOnNewLead: true,
		Recipients:      []string{"salle@venue.fr", "chef@venue.fr", "salle@venue.fr"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"salle@venue.fr", "chef@venue.fr"}, saved.Recipients)
	assert.Equal(t, 1, repo.saves)
}

func TestUpdateNotificationRejectsBadEmail(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo)

	_, err := svc.UpdateNotification(context.Background(), Notification{Recipients: []string{"not-an-email"}})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Zero(t, repo.saves)
}

func TestHandlerRoundTrip(t *testing.T) {
	repo := &mockRepository{current: Notification{NotifyOnNewLead: true, Recipients: []string{}}}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo))
	r := chi.NewRouter()
	h.MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/settings",
		strings.NewReader(`{"notifyOnNewLead":false,"recipients":["chef@venue.fr"],"copyCustomer":true}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, repo.current.CopyCustomer)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"recipients":["chef@venue.fr"]`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"recipients":["x"]}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestDepositNote(t *testing.T) {
	repo := &mockRepository{current: Notification{DepositPercentNote: "Acompte de 30 % à la réservation."}}
	svc := NewService(repo)
	assert.Equal(t, "Acompte de 30 % à la réservation.", svc.DepositNote(context.Background()))
}
