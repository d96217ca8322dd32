package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/venuedesk/venuedesk/internal/auth"
	"github.com/venuedesk/venuedesk/internal/catalogue"
	"github.com/venuedesk/venuedesk/internal/invoices"
	"github.com/venuedesk/venuedesk/internal/leads"
	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/settings"
	"github.com/venuedesk/venuedesk/jobs"
	"github.com/venuedesk/venuedesk/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Verifier         *auth.Verifier
	CatalogueHandler *catalogue.Handler
	LeadsHandler     *leads.Handler
	InvoicesHandler  *invoices.Handler
	SettingsHandler  *settings.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with venuedesk defaults. Public wizard routes live under
// /api; back-office routes under /admin require an admin bearer token.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.CatalogueHandler != nil {
			params.CatalogueHandler.MountRoutes(r)
		}
		if params.LeadsHandler != nil {
			params.LeadsHandler.MountRoutes(r)
		}
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(params.Verifier, params.Logger))
		r.Use(auth.RequireRole(auth.RoleAdmin))
		if params.CatalogueHandler != nil {
			params.CatalogueHandler.MountAdminRoutes(r)
		}
		if params.LeadsHandler != nil {
			params.LeadsHandler.MountAdminRoutes(r)
		}
		if params.InvoicesHandler != nil {
			params.InvoicesHandler.MountRoutes(r)
		}
		if params.SettingsHandler != nil {
			params.SettingsHandler.MountRoutes(r)
		}
		if params.ReportHandler != nil {
			r.Route("/report", params.ReportHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
