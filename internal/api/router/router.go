package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/civicdesk/civic-portal/internal/channels/whatsapp"
	"github.com/civicdesk/civic-portal/internal/http/handlers"
	httpmiddleware "github.com/civicdesk/civic-portal/internal/http/middleware"
	"github.com/civicdesk/civic-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Webhook            *whatsapp.WebhookHandler
	AdminCases         *handlers.AdminCasesHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.Webhook != nil {
			public.Route("/webhooks/whatsapp", func(wh chi.Router) {
				wh.Get("/", cfg.Webhook.HandleVerification)
				wh.Post("/", cfg.Webhook.HandleInbound)
			})
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Staff endpoints behind admin JWT
	if cfg.AdminCases != nil {
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/admin/cases", cfg.AdminCases.GetLatest)
			admin.Get("/admin/cases/{reference}", cfg.AdminCases.GetByReference)
			admin.Get("/admin/departments", cfg.AdminCases.ListDepartments)
		})
	}

	return r
}
