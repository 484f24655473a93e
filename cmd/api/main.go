package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/auth"
	"github.com/greenrnd/server/internal/config"
	"github.com/greenrnd/server/internal/db"
	"github.com/greenrnd/server/internal/directory"
	httphandler "github.com/greenrnd/server/internal/http"
	"github.com/greenrnd/server/internal/http/handlers"
	"github.com/greenrnd/server/internal/logging"
	"github.com/greenrnd/server/internal/metrics"
	"github.com/greenrnd/server/internal/receipts"
	"github.com/greenrnd/server/internal/repo"
	"github.com/greenrnd/server/internal/seed"
)

func main() {
	// env vars already set take precedence over .env
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server exited")
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx := context.Background()
	metrics.MustRegister()

	purchasers, receiptRepo, ping, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	fixture, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	if err := seed.Apply(ctx, fixture, purchasers, receiptRepo, logger); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}

	validator, err := newTokenValidator(cfg)
	if err != nil {
		return err
	}

	var codes auth.CodeGenerator = auth.RandomCode{}
	if cfg.OTPDevMode {
		logger.Warn().Msg("OTP_DEV_MODE enabled: every verification code is " + auth.DevCode)
		codes = auth.FixedCode(auth.DevCode)
	}

	dirSvc := directory.NewService(purchasers, codes, auth.NewLogNotifier(logger), logger, directory.Options{CodeTTL: cfg.CodeTTL})
	receiptSvc := receipts.NewService(purchasers, receiptRepo, receipts.FilterMode(cfg.ReceiptsFilter))

	router := httphandler.NewRouter(
		handlers.NewPurchaserHandler(dirSvc, logger),
		handlers.NewReceiptHandler(receiptSvc, logger),
		validator,
		logger,
	)

	servers := []*http.Server{newServer(cfg.Port, router)}
	if cfg.OpsPort != config.OpsPortOff {
		servers = append(servers, newServer(cfg.OpsPort, httphandler.NewOpsRouter(handlers.NewHealthHandler(ping))))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Msg("server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("server forced to shutdown")
		}
	}
	return serveErr
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// openStores returns the Postgres-backed repos when DATABASE_URL is set, the in-memory ones otherwise
func openStores(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (
	repo.PurchaserRepo, repo.ReceiptRepo, func(context.Context) error, func(), error,
) {
	if cfg.DatabaseURL == "" {
		logger.Info().Msg("using in-memory store")
		return repo.NewMemoryPurchaserRepo(), repo.NewMemoryReceiptRepo(), nil, func() {}, nil
	}

	database, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := db.Migrate(database); err != nil {
		_ = database.Close()
		return nil, nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := metrics.RegisterDBStats(database, "greenrnd"); err != nil {
		logger.Warn().Err(err).Msg("db stats collector not registered")
	}

	closeFn := func() {
		if err := database.Close(); err != nil {
			logger.Error().Err(err).Msg("close database")
		}
	}
	return repo.NewPurchaserRepo(database), repo.NewReceiptRepo(database), pinger(database), closeFn, nil
}

func pinger(database *sql.DB) func(context.Context) error {
	return database.PingContext
}

func newTokenValidator(cfg *config.Config) (auth.TokenValidator, error) {
	switch cfg.AuthMode {
	case config.AuthModeLength:
		return auth.NewLengthValidator(cfg.AuthTokenLength), nil
	case config.AuthModeJWT:
		return auth.NewJWTValidator(cfg.AuthJWTSecret), nil
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}
}
