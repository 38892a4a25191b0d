package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicboard/libs/config"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/calendar"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/layout"
)

type serviceConfig struct {
	Service  string
	Port     string
	GRPCPort string
	LogLevel string

	DatabaseURL  string
	DBMaxConns   int
	KafkaBrokers string
	OutboxPoll   time.Duration
	OutboxKeep   time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RateLimit      int
	RateLimitOpen  bool
	CORSOrigins    []string
	BodyLimitBytes int64
	RequestTimeout time.Duration

	Calendar   calendar.Config
	Revenue    float64
	ClinicZone *time.Location
}

func loadConfig() (serviceConfig, error) {
	cfg := serviceConfig{
		Service:        config.String("SERVICE_NAME", "calendar-service"),
		LogLevel:       config.String("LOG_LEVEL", "info"),
		DatabaseURL:    config.String("DATABASE_URL", ""),
		DBMaxConns:     config.Int("DB_MAX_CONNS", 10, 1, 1000),
		KafkaBrokers:   config.String("KAFKA_BROKERS", ""),
		OutboxPoll:     time.Duration(config.Int("OUTBOX_POLL_SECONDS", 2, 1, 3600)) * time.Second,
		OutboxKeep:     time.Duration(config.Int("OUTBOX_RETENTION_HOURS", 168, 0, 24*365)) * time.Hour,
		RedisAddr:      config.String("REDIS_ADDR", ""),
		RedisPassword:  config.String("REDIS_PASSWORD", ""),
		RedisDB:        config.Int("REDIS_DB", 0, 0, 15),
		RateLimit:      config.Int("RATE_LIMIT_PER_MINUTE", 120, 1, 1_000_000),
		RateLimitOpen:  config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		CORSOrigins:    config.List("CORS_ALLOWED_ORIGINS", ""),
		BodyLimitBytes: int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20, 1, 64<<20)),
		RequestTimeout: time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10, 1, 600)) * time.Second,
		Revenue:        config.Float("REVENUE_PER_APPOINTMENT", 500),
	}

	var err error
	if cfg.Port, err = config.Port("PORT", "8085"); err != nil {
		return serviceConfig{}, err
	}
	if cfg.Port == "" {
		cfg.Port = "8085"
	}
	// GRPC_PORT=off disables the health listener.
	if config.String("GRPC_PORT", "") != "off" {
		if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9095"); err != nil {
			return serviceConfig{}, err
		}
	}

	mode, err := layout.ParseMode(config.String("LAYOUT_MODE", "global"))
	if err != nil {
		return serviceConfig{}, err
	}
	cfg.Calendar = calendar.Config{
		Layout: layout.Options{
			DayStartHour:  config.Int("DAY_START_HOUR", 7, 0, 23),
			PixelsPerHour: config.Float("PIXELS_PER_HOUR", 80),
			Mode:          mode,
		},
		DayEndHour: config.Int("DAY_END_HOUR", 18, 1, 24),
	}
	if cfg.Calendar.DayEndHour <= cfg.Calendar.Layout.DayStartHour {
		return serviceConfig{}, fmt.Errorf("DAY_END_HOUR (%d) must be after DAY_START_HOUR (%d)",
			cfg.Calendar.DayEndHour, cfg.Calendar.Layout.DayStartHour)
	}

	cfg.ClinicZone = time.Local
	if name := config.String("CLINIC_TIMEZONE", ""); name != "" {
		if cfg.ClinicZone, err = time.LoadLocation(name); err != nil {
			return serviceConfig{}, fmt.Errorf("CLINIC_TIMEZONE: %w", err)
		}
	}
	return cfg, nil
}
