package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sessionforge/session-bot/internal/bot"
	"github.com/sessionforge/session-bot/internal/dispatch"
	apperrors "github.com/sessionforge/session-bot/internal/errors"
	"github.com/sessionforge/session-bot/internal/health"
	"github.com/sessionforge/session-bot/internal/i18n"
	"github.com/sessionforge/session-bot/internal/idempotency"
	"github.com/sessionforge/session-bot/internal/lifecycle"
	"github.com/sessionforge/session-bot/internal/middleware"
	"github.com/sessionforge/session-bot/internal/ratelimit"
	"github.com/sessionforge/session-bot/internal/session"
	"github.com/sessionforge/session-bot/internal/sessionapi"
	"github.com/sessionforge/session-bot/pkg/config"
	"github.com/sessionforge/session-bot/pkg/graceful"
	"github.com/sessionforge/session-bot/pkg/logger"
	pkgredis "github.com/sessionforge/session-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:         cfg.Log.Level,
		File:          cfg.Log.File,
		FileMaxSizeMB: cfg.Log.FileMaxSizeMB,
		FileMaxAge:    cfg.Log.FileMaxAge,
		SentryEnabled: cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	config.Watch(v, log, func(next *config.Config) {
		logger.SetLevel(next.Log.Level)
		log.Info("log level updated", slog.String("level", next.Log.Level))
	})

	log.Info("starting session bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
	)

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info("redis connected", slog.String("addr", cfg.Redis.Addr))
	}

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		var limiter ratelimit.Limiter
		if redisClient != nil {
			limiter = ratelimit.NewRedisLimiter(redisClient.Client, log)
		} else {
			limiter = ratelimit.NewMemoryLimiter(log)
		}
		rules := ratelimit.NewRules(cfg.RateLimit)
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, rules, log)
	}

	var idemStore idempotency.Store
	if redisClient != nil {
		idemStore = idempotency.NewRedisStore(redisClient.Client, log)
	} else {
		idemStore = idempotency.NewMemoryStore()
	}
	idem := idempotency.NewManager(idemStore, log)

	translations, err := i18n.Load("en")
	if err != nil {
		return err
	}
	tr := translations.Translator("en")

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	apiClient := sessionapi.NewClient(cfg.Service.BaseURL, cfg.Service.Timeout, log)

	tb, err := bot.NewTelebot(cfg.Bot)
	if err != nil {
		return err
	}

	transport := bot.NewTransport(tb, log)
	store := session.NewMemoryStore()
	timeouts := session.NewTimeoutManager(log)
	pool := dispatch.NewPool(cfg.Flow.Shards, cfg.Flow.QueueSize, log)
	cleaner := session.NewCoordinator(store, timeouts, transport, log)
	machine := session.NewMachine(
		store,
		timeouts,
		cleaner,
		apiClient,
		transport,
		pool,
		errHandler,
		tr,
		log,
		cfg.Flow.StepTimeout,
	)

	b := bot.New(log, tb, machine, tr, errHandler, rateLimitMw, idem)

	checker := health.NewChecker(log)
	checker.AddCheck("telegram", health.NewTelegramChecker(tb))
	checker.AddCheck("session_service", apiClient)
	if redisClient != nil {
		checker.AddCheck("redis", redisClient)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/health", checker.Handler())
	opsServer := graceful.NewServer(log, &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: logger.Middleware(mux),
	}, cfg.Server.ShutdownTimeout)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("dispatch_pool", func(context.Context) error {
		pool.Close()
		return nil
	})

	opsDone := make(chan error, 1)
	go func() {
		opsDone <- opsServer.ListenAndServe(ctx)
	}()

	go b.Start()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Warn("shutdown finished with errors", slog.Any("error", err))
	}

	if err := <-opsDone; err != nil && err != http.ErrServerClosed {
		return err
	}

	log.Info("session bot stopped")
	return nil
}
