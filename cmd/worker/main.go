// Worker runs the background jobs:
//   - forwards session events from Kafka to Loki (KAFKA_BROKERS, SESSION_EVENTS_TOPIC, KAFKA_GROUP_ID, LOKI_URL);
//   - deletes expired sessions every SWEEP_INTERVAL (DATABASE_URL, optional REDIS_URL for cache eviction).
//
// Either job may be disabled by leaving its settings empty, but not both.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MatheusAFD/mono-repo-auth/internal/config"
	"github.com/MatheusAFD/mono-repo-auth/internal/db"
	"github.com/MatheusAFD/mono-repo-auth/internal/logging"
	"github.com/MatheusAFD/mono-repo-auth/internal/metrics"
	sessionrepo "github.com/MatheusAFD/mono-repo-auth/internal/session/repository"
	"github.com/MatheusAFD/mono-repo-auth/internal/session/sweeper"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry/consumer"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry/loki"
	telemetryotel "github.com/MatheusAFD/mono-repo-auth/internal/telemetry/otel"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logging.Config{
		ServiceName: cfg.ServiceName + "-worker",
		Environment: cfg.Env,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	brokers := cfg.KafkaBrokersList()
	forward := len(brokers) > 0 && cfg.LokiURL != ""
	sweep := cfg.DatabaseURL != ""
	if !forward && !sweep {
		return errors.New("worker: set KAFKA_BROKERS and LOKI_URL, or DATABASE_URL")
	}

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: cfg.ServiceName + "-worker",
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	metrics.MustRegister(prometheus.DefaultRegisterer, cfg.ServiceName+"-worker")

	var wg sync.WaitGroup

	if forward {
		c := consumer.NewKafkaConsumer(brokers, cfg.SessionEventsTopic, cfg.KafkaGroupID, loki.NewClient(cfg.LokiURL, nil), logger)
		defer c.Close()
		logger.Info("worker: forwarding events", "topic", cfg.SessionEventsTopic, "group", cfg.KafkaGroupID, "loki", cfg.LokiURL)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Run(ctx)
		}()
	}

	var kafkaProducer *producer.KafkaProducer
	if sweep {
		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		var repo sessionrepo.Repository = sessionrepo.NewPostgresRepository(database)
		if cfg.RedisURL != "" {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return err
			}
			client := redis.NewClient(opts)
			defer client.Close()
			repo = sessionrepo.NewCachedRepository(repo, client, cfg.CacheTTL(), logger)
		}

		events := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
		if kafkaProducer = producer.NewKafkaProducer(brokers, cfg.SessionEventsTopic, logger); kafkaProducer != nil {
			events = append(events, kafkaProducer)
		}

		logger.Info("worker: sweeping expired sessions", "interval", cfg.SweepEvery().String())
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.New(repo, events, cfg.SweepEvery(), logger).Run(ctx)
		}()
	}

	<-ctx.Done()
	logger.Info("worker: shutting down")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := kafkaProducer.Close(); err != nil {
		logger.Warn("kafka producer close", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", "error", err)
	}
	logger.Info("worker: stopped")
	return nil
}
