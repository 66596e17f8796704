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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	sqliteadapter "github.com/Blue-Waters-bots/blue-waters-backend/internal/adapter/driven/sqlite"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/adapter/driven/watsonx"
	httphandler "github.com/Blue-Waters-bots/blue-waters-backend/internal/adapter/driving/http"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/application"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"model_id", cfg.ModelID,
		"watsonx_base_url", cfg.WatsonxBaseURL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations (schema plus seed dataset) on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire data store adapters.
	sourceStore := sqliteadapter.NewSourceRepo(db)
	predictionStore := sqliteadapter.NewPredictionRepo(db)
	historyStore := sqliteadapter.NewHistoryRepo(db)
	alertStore := sqliteadapter.NewAlertRepo(db)

	// 6. Create the credential broker and watsonx client.
	broker := watsonx.NewCredentialBroker(cfg.IAMTokenURL, cfg.WatsonxAPIKey, cfg.IdentityTimeout, slog.Default())
	wxClient := watsonx.NewClient(broker, cfg.WatsonxBaseURL, cfg.WatsonxProjectID, cfg.ModelID, cfg.ModelTimeout, slog.Default())

	// 7. Create the advisory service and HTTP handler.
	advisorySvc := application.NewAdvisoryService(wxClient)
	handler := httphandler.NewHandler(
		sourceStore,
		predictionStore,
		historyStore,
		alertStore,
		advisorySvc,
		wxClient,
		cfg.ExposeRaw,
		slog.Default(),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, cfg.AllowedOrigins, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("blue waters backend started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with a 10s drain window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
