// Package server assembles the HTTP API router and the gRPC health server.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit"
	audithandler "github.com/MatheusAFD/mono-repo-auth/internal/audit/handler"
	healthhandler "github.com/MatheusAFD/mono-repo-auth/internal/health/handler"
	identityhandler "github.com/MatheusAFD/mono-repo-auth/internal/identity/handler"
	"github.com/MatheusAFD/mono-repo-auth/internal/policy/engine"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/middleware"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/response"
	sessionhandler "github.com/MatheusAFD/mono-repo-auth/internal/session/handler"
)

const defaultRequestTimeout = 30 * time.Second

// Deps holds everything the router needs. Auth, Sessions and Health are required.
type Deps struct {
	Logger *slog.Logger
	// ServiceName names the otelhttp server spans.
	ServiceName string
	// AllowedOrigins are the browser origins allowed by CORS (credentials are allowed).
	AllowedOrigins []string
	// RequestTimeout bounds each request; zero means 30s.
	RequestTimeout time.Duration

	// CookieName is the session cookie read by the authentication middleware.
	CookieName string
	Verifier   middleware.CookieVerifier
	Resolver   middleware.SessionResolver
	Authz      engine.Authorizer

	Auth            *identityhandler.Handler
	SignInPerMinute int
	Sessions        *sessionhandler.Handler
	// AuditLogs is optional; when nil GET /audit-logs is not mounted.
	AuditLogs *audithandler.Handler
	// AuditLogger records authenticated session management calls. May be nil.
	AuditLogger audit.AuditLogger
	Health      *healthhandler.Checker

	// Gatherer backs GET /metrics. When nil the default Prometheus registry is used.
	Gatherer prometheus.Gatherer
}

// NewRouter returns the API handler:
//
//	GET    /health, /health/ready, /metrics
//	POST   /api/auth/sign-up/email, /api/auth/sign-in/email, /api/auth/sign-out
//	GET    /api/auth/get-session
//	GET    /sessions
//	DELETE /sessions/{token}
//	GET    /audit-logs
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = defaultRequestTimeout
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.ClientInfo)
	r.Use(middleware.Metrics)

	r.Get("/health", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Verifier, d.Resolver, d.CookieName, d.Logger))
		r.Mount("/api/auth", d.Auth.Routes(d.SignInPerMinute))
		r.Mount("/sessions", d.Sessions.Routes(d.Authz, middleware.Audit(d.AuditLogger)))
		if d.AuditLogs != nil {
			r.Mount("/audit-logs", d.AuditLogs.Routes(d.Authz))
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
	})
	return otelhttp.NewHandler(r, d.ServiceName)
}
