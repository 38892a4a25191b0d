package main

import (
	"context"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/clinicboard/libs/db"
	"github.com/md-rashed-zaman/clinicboard/libs/httpx"
	"github.com/md-rashed-zaman/clinicboard/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicboard/libs/otel"
	"github.com/md-rashed-zaman/clinicboard/libs/runtime"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/calendar"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/stats"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var checks []runtime.ReadyCheck
	var store storage.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		if err := storage.EnsureSchema(ctx, pool); err != nil {
			logger.Error("schema setup failed", "err", err)
			panic(err)
		}

		outboxRepo := outbox.NewRepository(pool)
		store = storage.NewPostgresStore(pool, outboxRepo)
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: cfg.OutboxPoll,
			BatchSize: 50,
			Retention: cfg.OutboxKeep,
		})
		go publisher.Run(ctx)

		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
		if len(kafkax.SplitBrokers(cfg.KafkaBrokers)) > 0 {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		}
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory appointment store")
		store = storage.NewMemoryStore()
	}

	var limiter httpx.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisLimiter(rdb, cfg.RateLimit, time.Minute, "")
		limiter = rl
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: rl.ReadyCheck()})
		logger.Info("rate limiting enabled (redis)", "per_minute", cfg.RateLimit, "redis_addr", cfg.RedisAddr)
	} else {
		limiter = httpx.NewMemoryLimiter(cfg.RateLimit, time.Minute)
		logger.Info("rate limiting enabled (in-memory)", "per_minute", cfg.RateLimit)
	}
	rateLimitMW := httpx.RateLimit(limiter, httpx.RateLimitOptions{FailOpen: cfg.RateLimitOpen, Logger: logger})

	builder := calendar.NewBuilder(store, cfg.Calendar)
	statsSvc := stats.NewService(store, cfg.Revenue, cfg.ClinicZone)

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux,
		handlers.NewAppointmentHandler(store, statsSvc.Today, logger),
		handlers.NewCalendarHandler(builder, statsSvc, cfg.Calendar.Layout.Mode, logger),
	)

	if cfg.GRPCPort != "" {
		if err := startGrpcServer(ctx, logger, cfg.GRPCPort, checks); err != nil {
			logger.Error("grpc server failed to start", "err", err)
		}
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
		httpx.ForMethods(rateLimitMW, http.MethodPost),
	)
	handler = otelhttp.NewHandler(handler, "calendar")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := runtime.ServeHTTP(ctx, logger, srv, nil, 10*time.Second); err != nil {
		logger.Error("http server error", "err", err)
	}
}
