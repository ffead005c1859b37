package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"beautybook/internal/api"
	"beautybook/internal/booking"
	"beautybook/internal/config"
	"beautybook/internal/db"
	"beautybook/internal/events"
	"beautybook/internal/lock"
	"beautybook/internal/metrics"
	"beautybook/internal/mongostore"
	"beautybook/internal/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("BEAUTYBOOK_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, sqlite, err := openStore(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Store).Msg("open store error")
	}
	defer backend.Close()

	var st store.Store = store.NewRetrying(backend, store.RetryConfig{
		MaxRetries:  retryMax(cfg),
		RetryDelays: retryDelays(cfg),
	}, &logger)

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if cfg.CacheTTL() > 0 {
			st = store.NewCached(st, rdb, cfg.CacheTTL(), &logger)
		}
	}

	var locker lock.Locker
	if rdb != nil {
		locker = lock.NewRedis(rdb, cfg.LockTTL(), cfg.LockWait(), &logger)
	} else {
		locker = lock.NewLocal(cfg.LockWait())
	}

	bus := events.NewEventBus(&logger)
	bus.Subscribe(events.All, func(ev events.Event) error {
		logger.Debug().
			Str("event", ev.Type).
			Str("professional_id", ev.ProfessionalID).
			Str("date", ev.Date).
			Msg("domain event")
		return nil
	})

	svc := booking.NewService(st, locker, bus, booking.Config{
		Granularity:    cfg.Booking.GranularityMinutes,
		MinAdvance:     cfg.BookingMinAdvance(),
		MaxAdvanceDays: cfg.Booking.MaxAdvanceDays,
		Location:       cfg.Location(),
		StoreTimeout:   cfg.StoreTimeout(),
	}, &logger)

	if _, err := os.Stat(cfg.Clinic.Path); err == nil {
		err := config.WatchClinic(ctx, cfg.Clinic.Path, cfg.ClinicWatchInterval(), &logger, func(c *config.ClinicConfig) {
			syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := config.SyncClinic(syncCtx, st, locker, c, &logger); err != nil {
				logger.Error().Err(err).Msg("clinic sync failed")
			}
		})
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Clinic.Path).Msg("load clinic config error")
		}
	} else {
		logger.Warn().Str("path", cfg.Clinic.Path).Msg("clinic config not found, catalogue sync disabled")
	}

	if sqlite != nil {
		backup := db.NewBackupService(sqlite, db.BackupOptions{
			Enabled:   cfg.Backup.Enabled,
			Dir:       cfg.Backup.Path,
			Interval:  cfg.BackupInterval(),
			Retention: cfg.Backup.RetentionCount,
		})
		go backup.Start(ctx)
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, st, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(svc, st, api.Options{
		Port:               cfg.Server.Port,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
		ReadTimeout:        cfg.ReadTimeout(),
		WriteTimeout:       cfg.WriteTimeout(),
	}, &logger)

	logger.Info().Str("store", cfg.Store).Bool("redis", rdb != nil).Msg("Booking service started")
	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("api server error")
	}
	logger.Info().Msg("Booking service stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Log.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// openStore returns the configured backend and, for sqlite, the concrete
// handle the backup loop needs.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.Store, *db.DB, error) {
	switch cfg.Store {
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		s, err := mongostore.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case "sqlite":
		database, err := db.NewDB(cfg.Database.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return database, database, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func retryMax(cfg *config.Config) int {
	if cfg.Booking.RetryMax > 0 {
		return cfg.Booking.RetryMax
	}
	return store.DefaultRetryConfig().MaxRetries
}

func retryDelays(cfg *config.Config) []time.Duration {
	if d := cfg.RetryDelays(); len(d) > 0 {
		return d
	}
	return store.DefaultRetryConfig().RetryDelays
}

func startHealthServer(ctx context.Context, port int, st store.Store, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := st.Ping(ctxPing); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
