package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/cache"
	cryptoadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/crypto"
	sqliteadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/storeadmin/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/storeadmin/internal/adapter/driving/web"
	"github.com/ericfisherdev/storeadmin/internal/application"
	"github.com/ericfisherdev/storeadmin/internal/catalog"
	"github.com/ericfisherdev/storeadmin/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.LoadFile(".env")
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"cache_ttl", cfg.CacheTTL,
		"gate_window", cfg.GateWindow,
		"encryption", cfg.HasSecretKey(),
	)
	if !cfg.HasSecretKey() {
		logger.Warn("STOREADMIN_SECRET_KEY not set, encrypted settings cannot be saved")
	}
	if cfg.SessionKeyGenerated {
		logger.Warn("STOREADMIN_SESSION_KEY not set, sessions will not survive a restart")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	logger.Info("migrations complete")

	// 5. Wire driven adapters: encrypted repo behind the read cache.
	cipher, err := cryptoadapter.NewAESGCM(cfg.SecretKey)
	if err != nil {
		return err
	}
	repo := sqliteadapter.NewSettingRepo(db, cipher, logger)
	store := cacheadapter.NewSettingCache(repo, cfg.CacheTTL)
	go store.Start()
	defer store.Stop()

	// 6. Load the catalog and create the settings service.
	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	svc := application.NewSettingsService(store, cat, cryptoadapter.NewBcryptHasher(0), logger,
		application.WithGateWindow(cfg.GateWindow))

	if configured, err := svc.PasscodeConfigured(ctx); err != nil {
		return err
	} else if !configured {
		logger.Warn("no master passcode configured, sensitive sections stay locked until one is set with storeadminctl")
	}

	// 7. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(svc, db, logger)
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 7.1. Create web handler and register console routes.
	sessions := webhandler.NewSessionCodec(cfg.SessionKey, cfg.SecureCookies)
	webHandler := webhandler.NewHandler(svc, sessions, cfg.SecureCookies, logger)
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// 8. Log startup complete.
	logger.Info("storeadmin started", "listen_addr", cfg.ListenAddr, "sections", cat.Names())

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// 11. Log shutdown complete.
	logger.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from the configured format and level.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
