// server runs the HTTP API (auth, sessions, audit logs, health, metrics) and the gRPC health service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/health"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit"
	audithandler "github.com/MatheusAFD/mono-repo-auth/internal/audit/handler"
	auditrepo "github.com/MatheusAFD/mono-repo-auth/internal/audit/repository"
	"github.com/MatheusAFD/mono-repo-auth/internal/config"
	"github.com/MatheusAFD/mono-repo-auth/internal/db"
	healthhandler "github.com/MatheusAFD/mono-repo-auth/internal/health/handler"
	identityhandler "github.com/MatheusAFD/mono-repo-auth/internal/identity/handler"
	identityrepo "github.com/MatheusAFD/mono-repo-auth/internal/identity/repository"
	identityservice "github.com/MatheusAFD/mono-repo-auth/internal/identity/service"
	"github.com/MatheusAFD/mono-repo-auth/internal/logging"
	"github.com/MatheusAFD/mono-repo-auth/internal/metrics"
	"github.com/MatheusAFD/mono-repo-auth/internal/policy/engine"
	"github.com/MatheusAFD/mono-repo-auth/internal/security"
	"github.com/MatheusAFD/mono-repo-auth/internal/server"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/middleware"
	sessionhandler "github.com/MatheusAFD/mono-repo-auth/internal/session/handler"
	sessionrepo "github.com/MatheusAFD/mono-repo-auth/internal/session/repository"
	sessionservice "github.com/MatheusAFD/mono-repo-auth/internal/session/service"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry"
	telemetryotel "github.com/MatheusAFD/mono-repo-auth/internal/telemetry/otel"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry/producer"
	userrepo "github.com/MatheusAFD/mono-repo-auth/internal/user/repository"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthWatchInterval = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logging.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	metrics.MustRegister(prometheus.DefaultRegisterer, cfg.ServiceName)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	var policy *engine.OPAEvaluator
	if cfg.AccessPolicyPath != "" {
		policy, err = engine.NewOPAEvaluatorFromFile(ctx, cfg.AccessPolicyPath)
	} else {
		policy, err = engine.NewOPAEvaluator(ctx, "")
	}
	if err != nil {
		return err
	}

	privateKey, publicKey, ephemeral, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return err
	}
	if ephemeral {
		logger.Warn("JWT_PRIVATE_KEY not set; using an ephemeral signing key, session cookies will not survive a restart")
	}
	signer := security.NewCookieSigner(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience)

	var sessions sessionrepo.Repository = sessionrepo.NewPostgresRepository(database)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		sessions = sessionrepo.NewCachedRepository(sessions, redisClient, cfg.CacheTTL(), logger)
		logger.Info("session cache enabled")
	}
	users := userrepo.NewPostgresRepository(database)
	audits := auditrepo.NewPostgresRepository(database)
	auditLogger := audit.NewLogger(audits, middleware.ClientIPFromContext, logger)

	events := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.SessionEventsTopic, logger)
	if kafkaProducer != nil {
		events = append(events, kafkaProducer)
		logger.Info("session events publishing enabled", "topic", cfg.SessionEventsTopic)
	}

	authSvc := identityservice.NewAuthService(
		users,
		identityrepo.NewPostgresRepository(database),
		sessions,
		security.NewHasher(cfg.BcryptCost),
		events,
		auditLogger,
		identityservice.Options{ExpiresIn: cfg.SessionTTL(), UpdateAge: cfg.SessionRefreshAge()},
	)
	sessionSvc := sessionservice.NewService(sessions, users, policy, events)
	checker := healthhandler.NewChecker(database, policy)

	router := server.NewRouter(server.Deps{
		Logger:          logger,
		ServiceName:     cfg.ServiceName,
		AllowedOrigins:  cfg.AllowedOriginsList(),
		CookieName:      cfg.SessionCookieName,
		Verifier:        signer,
		Resolver:        authSvc,
		Authz:           policy,
		Auth:            identityhandler.NewHandler(authSvc, signer, identityhandler.CookieOptions{Name: cfg.SessionCookieName, Secure: cfg.IsProduction()}, logger),
		SignInPerMinute: cfg.SignInRateLimit,
		Sessions:        sessionhandler.NewHandler(sessionSvc, logger),
		AuditLogs:       audithandler.NewHandler(audits, logger),
		AuditLogger:     auditLogger,
		Health:          checker,
		Gatherer:        prometheus.DefaultGatherer,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthSrv := health.NewServer()
	grpcSrv := server.NewGRPCServer(healthSrv)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	go checker.Watch(ctx, healthSrv, healthWatchInterval)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("gRPC health server listening", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	grpcSrv.GracefulStop()

	// Async session events may still be in flight.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		logger.Warn("kafka producer close", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", "error", err)
	}
	logger.Info("server stopped")
	return serveErr
}
