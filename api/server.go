/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RequestLog: zap access log (method, path, status, bytes, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

RATE LIMITING:
  xlsx exports and the backup download build the whole workbook or database
  copy in memory, so they are limited per client IP with httprate.

ROUTE GROUPS:
  /api/production, /api/sales, /api/other-sales, /api/expenses   Entry forms
  /api/ledger, /api/statement                                    Ledger
  /api/reports                                                   Reports
  /api/settings, /api/distributors, /api/prices                  Prices
  /api/backup                                                    Snapshot
  /api/scenarios                                                 Demo only

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RouterConfig holds the knobs of NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	// ExportRateLimit is requests per minute per client on export routes.
	// Zero disables the limit.
	ExportRateLimit int
	// Demo mounts the scenario routes, which can wipe the database.
	Demo   bool
	Logger *zap.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.ExportRateLimit > 0 {
		limited = httprate.Limit(cfg.ExportRateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "Too many export requests", nil)
			}),
		)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.GetCatalog)

		// Entry forms
		r.Route("/production", func(r chi.Router) {
			r.Get("/{date}", h.GetProduction)
			r.Put("/{date}", h.SaveProduction)
		})
		r.Route("/sales", func(r chi.Router) {
			r.Get("/{date}", h.GetSales)
			r.Put("/{date}", h.SaveSales)
		})
		r.Route("/other-sales", func(r chi.Router) {
			r.Get("/{date}", h.GetOtherSales)
			r.Put("/{date}", h.SaveOtherSales)
		})
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/{date}", h.GetExpenses)
			r.Put("/{date}", h.SaveExpenses)
		})

		// Ledger routes
		r.Post("/ledger", h.AddLedgerEntry)
		r.Route("/statement", func(r chi.Router) {
			r.Get("/", h.GetStatement)
			r.With(limited).Get("/export", h.ExportStatement)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily/{date}", h.GetDailyReport)
			r.Get("/monthly/{year}/{month}", h.GetMonthlyReport)
			r.With(limited).Get("/monthly/{year}/{month}/export", h.ExportMonthlyReport)
		})

		// Price routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.ListSettings)
			r.Put("/{key}", h.UpdateSetting)
		})
		r.Route("/distributors", func(r chi.Router) {
			r.Get("/prices", h.ListDistributorPrices)
			r.Put("/{name}/price", h.UpdateDistributorPrice)
		})
		r.Get("/prices/{name}", h.GetPrice)

		r.With(limited).Get("/backup", h.DownloadBackup)

		// Scenario routes
		if cfg.Demo {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
