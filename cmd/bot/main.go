package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Proton-105/joke-bot/internal/bot"
	"github.com/Proton-105/joke-bot/internal/database"
	"github.com/Proton-105/joke-bot/internal/health"
	"github.com/Proton-105/joke-bot/internal/i18n"
	"github.com/Proton-105/joke-bot/internal/idempotency"
	"github.com/Proton-105/joke-bot/internal/joke"
	"github.com/Proton-105/joke-bot/internal/lifecycle"
	"github.com/Proton-105/joke-bot/internal/middleware"
	"github.com/Proton-105/joke-bot/internal/ratelimit"
	"github.com/Proton-105/joke-bot/internal/repository"
	"github.com/Proton-105/joke-bot/internal/state"
	"github.com/Proton-105/joke-bot/internal/updater"
	"github.com/Proton-105/joke-bot/pkg/config"
	"github.com/Proton-105/joke-bot/pkg/graceful"
	"github.com/Proton-105/joke-bot/pkg/logger"
	"github.com/Proton-105/joke-bot/pkg/metrics"
	redisclient "github.com/Proton-105/joke-bot/pkg/redis"
)

const (
	rateLimitCleanupInterval = time.Minute
	sentryFlushTimeout       = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "joke bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", "", "path to the YAML config file (default ./configs/<APP_ENV>.yaml)")
	pflag.Parse()

	cfg, v, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, level := logger.New(*cfg)
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(sentryFlushTimeout)
	}

	log.Info("starting joke bot",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("language", cfg.Bot.Language),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.String("http_addr", cfg.Server.Addr),
	)

	config.Watch(v, func(updated *config.Config, e fsnotify.Event) {
		level.Set(logger.ParseLevel(updated.Logger.Level))
		log.Info("configuration reloaded", slog.String("file", e.Name), slog.String("log_level", updated.Logger.Level))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := database.NewMigrator(db, log).Apply(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	checker := health.NewChecker(log)
	repo := repository.NewJokeRepository(db, log)
	checker.AddCheck("database", health.CheckFunc(repo.Ping))

	var redisClient *goredis.Client
	var storage state.Storage = state.NewMemoryStorage()
	seenUpdates := idempotency.NewMemoryStore()
	var dedupStore idempotency.Store = seenUpdates
	if cfg.Redis.Enabled {
		rc, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rc.Close(); cerr != nil {
				log.Error("error closing redis", slog.Any("error", cerr))
			}
		}()

		redisClient = rc.Client
		storage = state.NewRedisStorage(redisClient, log, cfg.Session.PendingTTL)
		dedupStore = idempotency.NewRedisStore(redisClient, log)
		checker.AddCheck("redis", rc)
	}

	fsm := state.NewStateMachine(storage, log, redisClient, cfg.Session.PendingTTL)

	catalog, err := i18n.Load(cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	pipeline := updater.NewPipeline(
		updater.DefaultSteps(updater.Options{
			BuildScript: cfg.Updater.BuildScript,
			ServiceUnit: cfg.Updater.ServiceUnit,
		}),
		updater.ExecRunner{Dir: cfg.Updater.Workdir, Timeout: cfg.Updater.StepTimeout},
		log,
	)

	memoryLimiter := ratelimit.NewMemoryLimiter(log)
	rules := ratelimit.NewRules(cfg.RateLimit, cfg.Bot.AdminID)
	var rateLimit *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		var primary ratelimit.Limiter
		if redisClient != nil {
			primary = ratelimit.NewRedisLimiter(redisClient, log)
		}
		rateLimit = middleware.NewRateLimitMiddleware(ratelimit.NewAdaptiveLimiter(primary, memoryLimiter, log), rules, log)
	}

	b, err := bot.New(*cfg, log, bot.Deps{
		FSM:       fsm,
		Jokes:     joke.NewService(repo, log),
		Updater:   pipeline,
		Catalog:   catalog,
		RateLimit: rateLimit,
		Dedup:     idempotency.NewGuard(dedupStore, cfg.Bot.DedupTTL, log),
	})
	if err != nil {
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	probes := lifecycle.NewProbes(log, checker)
	server := newHTTPServer(cfg.Server, log, checker, probes)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram", b.Stop)

	stateCleaner := state.NewCleaner(storage, log, cfg.Session.PendingTTL)
	limitCleaner := ratelimit.NewCleaner(redisClient, memoryLimiter, log, rateLimitRetention(rules))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	g.Go(func() error {
		lifecycle.Every(gctx, cfg.Session.CleanupInterval, func(ctx context.Context) {
			stateCleaner.Cleanup(ctx)
		})
		return nil
	})
	g.Go(func() error {
		metrics.NewStateCollector(fsm).Run(gctx)
		return nil
	})
	g.Go(func() error {
		lifecycle.Every(gctx, rateLimitCleanupInterval, func(ctx context.Context) {
			limitCleaner.Cleanup(ctx)
		})
		return nil
	})
	g.Go(func() error {
		lifecycle.Every(gctx, cfg.Session.CleanupInterval, func(context.Context) {
			if n := seenUpdates.Sweep(); n > 0 {
				log.Debug("expired update ids swept", slog.Int("removed", n))
			}
		})
		return nil
	})
	g.Go(func() error {
		probes.MarkReady()
		b.Start()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		probes.MarkDraining()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return shutdown.Execute(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("joke bot stopped")
	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func newHTTPServer(cfg config.ServerConfig, log *slog.Logger, checker *health.Checker, probes *lifecycle.Probes) *graceful.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())
	mux.Handle("/livez", lifecycle.ProbeHandler(probes.Liveness))
	mux.Handle("/readyz", lifecycle.ProbeHandler(probes.Readiness))

	handler := logger.Middleware(middleware.HTTPLogging(log)(mux))
	return graceful.NewServer(log, cfg.Addr, handler, cfg.ShutdownTimeout)
}

// rateLimitRetention keeps limiter entries for two windows.
func rateLimitRetention(rules *ratelimit.Rules) time.Duration {
	_, window, err := rules.GetPerUserLimit()
	if err != nil {
		return 10 * time.Minute
	}
	return 2 * window
}
