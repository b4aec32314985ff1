package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/restoinsight/insights-server/internal/api/http/handler"
	"github.com/restoinsight/insights-server/internal/api/http/middleware"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
)

const defaultMaxUploadBytes = 10 << 20

// Router wires HTTP handlers and middleware for the insights API.
type Router struct {
	authService    handler.AuthService
	reportService  handler.ReportService
	historyService handler.HistoryService
	quotaService   handler.QuotaService
	tokens         middleware.TokenParser
	contextManager model.ContextManager
	logger         *logger.Logger

	corsOrigins    []string
	maxUploadBytes int64
	limiter        middleware.Limiter
	pingers        map[string]handler.Pinger
}

// Option configures optional Router behaviour.
type Option func(*Router)

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins []string) Option {
	return func(r *Router) {
		r.corsOrigins = origins
	}
}

// WithMaxUploadBytes bounds the size of report uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxUploadBytes = n
		}
	}
}

// WithLimiter throttles authenticated requests per account.
func WithLimiter(l middleware.Limiter) Option {
	return func(r *Router) {
		r.limiter = l
	}
}

// WithPingers registers dependencies checked by the health endpoint.
func WithPingers(pingers map[string]handler.Pinger) Option {
	return func(r *Router) {
		r.pingers = pingers
	}
}

// New creates a new Router instance.
func New(
	authService handler.AuthService,
	reportService handler.ReportService,
	historyService handler.HistoryService,
	quotaService handler.QuotaService,
	tokens middleware.TokenParser,
	contextManager model.ContextManager,
	logger *logger.Logger,
	opts ...Option,
) *Router {
	r := &Router{
		authService:    authService,
		reportService:  reportService,
		historyService: historyService,
		quotaService:   quotaService,
		tokens:         tokens,
		contextManager: contextManager,
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register builds the HTTP handler with all routes and middleware.
func (r *Router) Register() *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.NewLogging(r.logger).Handle)
	mux.Use(chimw.Recoverer)
	if len(r.corsOrigins) > 0 {
		mux.Use(corsHandler(r.corsOrigins))
	}

	healthHandler := handler.NewHealth(r.pingers, r.logger)
	authHandler := handler.NewAuth(r.authService, r.logger)
	reportHandler := handler.NewReport(r.reportService, r.historyService, r.contextManager, r.logger, r.maxUploadBytes)
	dashboardHandler := handler.NewDashboard(r.quotaService, r.contextManager, r.logger)
	authenticate := middleware.NewAuthenticate(r.tokens, r.contextManager, r.logger)

	mux.Get("/health", healthHandler.Get)

	mux.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)
		api.Post("/auth/verify", authHandler.Verify)

		api.Group(func(private chi.Router) {
			private.Use(authenticate.Handle)
			if r.limiter != nil {
				private.Use(middleware.NewRateLimit(r.limiter, r.contextManager, r.logger).Handle)
			}

			private.Post("/analyze", reportHandler.Analyze)
			private.Get("/report-history", reportHandler.History)
			private.Get("/download-report/{name}", reportHandler.Download)
			private.Get("/dashboard", dashboardHandler.Get)
		})
	})

	return mux
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			handler.HeaderReportName,
			handler.HeaderReportID,
			handler.HeaderReportDegraded,
		},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
