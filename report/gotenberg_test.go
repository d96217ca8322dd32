package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRenderHTMLPostsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "8.27", r.FormValue("paperWidth"))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		assert.Equal(t, "index.html", header.Filename)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "<p>devis</p>", string(body))
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL+"/").RenderHTML(context.Background(), "<p>devis</p>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
}

func TestClientRenderHTMLFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<p></p>")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"up"}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL).Ping(context.Background()))
}

func TestHandlerPingReportsUnavailable(t *testing.T) {
	h := NewHandler(NewClient("http://127.0.0.1:1"), discardLogger())
	rr := httptest.NewRecorder()
	h.ping(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
