package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"dailybit/internal/accesslog"
	accessconsumer "dailybit/internal/accesslog/consumer"
	accessmetrics "dailybit/internal/accesslog/metrics"
	accesskafka "dailybit/internal/accesslog/store/kafka"
	accessmemory "dailybit/internal/accesslog/store/memory"
	accesspostgres "dailybit/internal/accesslog/store/postgres"
	"dailybit/internal/agent/classifier"
	"dailybit/internal/analytics"
	"dailybit/internal/billing"
	"dailybit/internal/content"
	contenthandler "dailybit/internal/content/handler"
	"dailybit/internal/dispatch"
	dispatchmetrics "dailybit/internal/dispatch/metrics"
	feedshandler "dailybit/internal/feeds/handler"
	feedsservice "dailybit/internal/feeds/service"
	feedsmemory "dailybit/internal/feeds/store/memory"
	feedspostgres "dailybit/internal/feeds/store/postgres"
	"dailybit/internal/gate"
	"dailybit/internal/platform/config"
	"dailybit/internal/platform/httpserver"
	"dailybit/internal/platform/kafka"
	"dailybit/internal/platform/kafka/consumer"
	"dailybit/internal/platform/logger"
	"dailybit/internal/platform/metrics"
	"dailybit/internal/platform/postgres"
	"dailybit/internal/platform/redis"
	noteshandler "dailybit/internal/notes/handler"
	notesservice "dailybit/internal/notes/service"
	notesmemory "dailybit/internal/notes/store/memory"
	notespostgres "dailybit/internal/notes/store/postgres"
	profilehandler "dailybit/internal/profile/handler"
	profilememory "dailybit/internal/profile/store/memory"
	profilepostgres "dailybit/internal/profile/store/postgres"
	"dailybit/internal/session"
	"dailybit/internal/tokenowner"
	httptransport "dailybit/internal/transport/http"
	"dailybit/migrations"
	"dailybit/pkg/platform/circuit"
)

type accessLogStore interface {
	accesslog.Store
	analytics.Reader
}

type profileStore interface {
	tokenowner.Store
	profilehandler.SkillStore
	billing.SubscriptionStore
	notesservice.ProfileReader
}

// main wires dependencies, serves HTTP and drains the access log on
// shutdown. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path := os.Getenv("DAILYBIT_CONFIG"); path != "" {
		if err := config.LoadGateFile(path, &cfg.Gate); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	health := map[string]httptransport.HealthCheck{}

	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	var (
		accessStore  accessLogStore
		profiles     profileStore
		feedStore    feedsservice.Store
		noteStore    notesservice.Store
		sessionStore session.Store
	)
	if pool != nil {
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, migrations.FS); err != nil {
			return err
		}
		accessStore = accesspostgres.New(pool)
		profiles = profilepostgres.New(pool)
		feedStore = feedspostgres.New(pool)
		noteStore = notespostgres.New(pool)
		health["postgres"] = pingPool(pool)
	} else {
		log.Warn("DATABASE_URL not set; using in-memory stores")
		accessStore = accessmemory.NewInMemoryStore()
		profiles = profilememory.NewInMemoryStore()
		feedStore = feedsmemory.NewInMemoryStore()
		noteStore = notesmemory.NewInMemoryStore()
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = session.NewRedis(redisClient.Client)
		health["redis"] = redisClient.Health
	} else {
		log.Warn("REDIS_URL not set; using in-memory sessions")
		sessionStore = session.NewInMemoryStore()
	}

	// With brokers configured, requests publish to the topic and a group
	// consumer drains it into the record store.
	var logSink accesslog.Store = accessStore
	drainDone := make(chan struct{})
	drainCtx, stopDrain := context.WithCancel(context.Background())
	defer stopDrain()
	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.AccessLogTopic, cfg.Kafka.Partitions); err != nil {
			return err
		}
		consumerClient, err := kafka.NewConsumer(ctx, cfg.Kafka)
		if err != nil {
			return err
		}
		defer consumerClient.Close()

		logSink = accesskafka.New(producer, cfg.Kafka.AccessLogTopic)
		health["kafka"] = producer.Ping
		drain := consumer.New(consumerClient, accessconsumer.NewHandler(accessStore, log), log)
		go func() {
			defer close(drainDone)
			if err := drain.Run(drainCtx); err != nil {
				log.Error("access log consumer stopped", "error", err)
			}
		}()
	} else {
		close(drainDone)
	}

	resolver, err := tokenowner.New(profiles, tokenowner.WithLogger(log))
	if err != nil {
		return err
	}
	accessLog, err := accesslog.New(logSink,
		accesslog.WithResolver(resolver),
		accesslog.WithLogger(log),
		accesslog.WithMetrics(accessmetrics.New(reg)),
		accesslog.WithBreaker(circuit.New("accesslog",
			circuit.WithFailureThreshold(cfg.AccessLog.BreakerThreshold),
			circuit.WithCooldown(cfg.AccessLog.BreakerCooldown),
		)),
		accesslog.WithBufferSize(cfg.AccessLog.BufferSize),
		accesslog.WithWriteTimeout(cfg.AccessLog.WriteTimeout),
	)
	if err != nil {
		return err
	}

	if cfg.Session.UsesDevSigningKey() {
		log.Warn("SESSION_SIGNING_KEY not set; signing sessions with the development key")
	}
	sessions, err := session.New(sessionStore, cfg.Session, session.WithLogger(log))
	if err != nil {
		return err
	}

	dispatcher, err := dispatch.New(
		classifier.New(classifier.WithExtraAgentPatterns(cfg.Gate.ExtraAgentPatterns...)),
		gate.New(cfg.Gate),
		cfg.Gate,
		log,
		dispatch.WithSessionRefresher(sessions),
		dispatch.WithMetrics(dispatchmetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	corpus := content.Open(cfg.Content.Dir)
	feedService, err := feedsservice.New(feedStore, corpus, log)
	if err != nil {
		return err
	}
	summaries, err := analytics.NewService(accessStore)
	if err != nil {
		return err
	}
	noteService, err := notesservice.New(noteStore, profiles, log)
	if err != nil {
		return err
	}
	feeds := feedshandler.New(feedService, resolver, accessLog, log)
	profileHandler := profilehandler.New(profiles, log, cfg.Gate.SkillURL)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Dispatch:       dispatcher.Middleware,
		RequireSession: sessions.RequireSession,
		Public: []httptransport.Registrar{
			contenthandler.New(corpus, accessLog, log),
			feeds,
			profileHandler,
			billing.NewHandler(profiles, cfg.Billing.WebhookSecret, log),
		},
		User: []httptransport.Registrar{
			httptransport.RegistrarFunc(feeds.RegisterUser),
			httptransport.RegistrarFunc(profileHandler.RegisterUser),
			noteshandler.New(noteService, log),
			analytics.NewHandler(summaries, log),
		},
		Logout:       sessions.HandleLogout,
		Gatherer:     reg,
		MetricsToken: cfg.Server.MetricsToken,
		Health:       health,
		Static:       httptransport.StaticDir(cfg.Server.StaticDir),
	})

	srv := httpserver.New(cfg.Server, router, log)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting dailybit", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := accessLog.Close(shutdownCtx); err != nil {
		log.Warn("access log not fully drained", "error", err)
	}
	stopDrain()
	<-drainDone
	return nil
}

func pingPool(pool *pgxpool.Pool) httptransport.HealthCheck {
	return pool.Ping
}
