package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/auth"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/config"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	_ "github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core/platforms" // Register all platforms
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/events"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"in_memory_store", cfg.Database.InMemory,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"auth_enabled", cfg.Auth.AuthEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	pub, err := openPublisher(cfg)
	if err != nil {
		slog.Error("failed to connect event publisher", "error", err)
		os.Exit(1)
	}
	defer pub.Close()

	// Create service with config
	service := core.NewService(st, pub, core.Options{
		MaxCSVBytes:          int(cfg.Import.MaxCSVBytes),
		MaxImportRows:        cfg.Import.MaxRows,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		MaxImportWait:        cfg.Import.MaxWaitTime,
		ImportTimeout:        cfg.Import.Timeout,
		CloseDelay:           cfg.Import.CloseDelay,
		SessionTTL:           cfg.Import.SessionTTL,
	})

	// Log registered platforms
	slog.Info("platforms registered",
		"count", core.PlatformCount(),
		"keys", core.PlatformKeys(),
	)

	authn := auth.New(auth.Config{
		ClientID:     cfg.Auth.DiscordClientID,
		ClientSecret: cfg.Auth.DiscordClientSecret,
		RedirectURL:  cfg.Auth.DiscordRedirectURL,
		SessionTTL:   cfg.Auth.SessionTTL,
	})
	if authn.Enabled() {
		slog.Info("discord login enabled", "redirect_url", cfg.Auth.DiscordRedirectURL)
	} else {
		slog.Warn("discord login disabled, running as local admin")
	}

	rateLimit := cfg.Rate.RequestsPerMinute
	if !cfg.Rate.Enabled {
		rateLimit = -1
	}

	// Create server with config
	server := web.NewServer(service, authn, web.Options{
		TrustedProxies: cfg.Security.TrustedProxies,
		RateLimit:      rateLimit,
		RateWindow:     time.Minute,
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	auditRetention := time.Duration(cfg.Maintenance.AuditRetentionDays) * 24 * time.Hour
	go service.Maintain(jobCtx, cfg.Maintenance.SweepInterval, auditRetention)
	go authn.SessionStore().Maintain(jobCtx, cfg.Maintenance.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		// Wait for active imports to complete (with timeout)
		status := service.ImportStatus()
		if status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.DrainImports(cfg.Server.ShutdownTimeout); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openStore connects the configured store: PostgreSQL by default, the
// in-memory store when DB_IN_MEMORY is set.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database.InMemory {
		slog.Warn("using in-memory store, data will not survive a restart")
		return store.NewMemory(), func() {}, nil
	}

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	pg := store.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

// openPublisher connects NATS when configured, otherwise keeps events
// in-process.
func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.Events.NATSURL == "" {
		return events.NewMemory(), nil
	}
	pub, err := events.NewNATS(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to nats", "url", cfg.Events.NATSURL, "subject_prefix", cfg.Events.SubjectPrefix)
	return pub, nil
}
