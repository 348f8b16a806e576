package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/contactbook/contactbook-go/internal/config"
	"github.com/contactbook/contactbook-go/internal/handler"
	"github.com/contactbook/contactbook-go/internal/repository"
	"github.com/contactbook/contactbook-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewDB(startCtx, cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		cancelStart()
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(startCtx, db, cfg.DBDriver); err != nil {
		cancelStart()
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	cancelStart()

	authService, err := service.NewAuthService(repository.NewAccountRepository(db), cfg.HashParams, cfg.TokenTTL)
	if err != nil {
		slog.Error("auth service init failed", "error", err)
		os.Exit(1)
	}
	contactService := service.NewContactService(
		authService,
		repository.NewContactRepository(db),
		service.EmailMatch(cfg.EmailMatch),
	)

	router := handler.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewContactHandler(contactService),
		handler.RouterOptions{
			Logger:              logger,
			RateLimitRPS:        cfg.RateLimitRPS,
			RateLimitBurst:      cfg.RateLimitBurst,
			RegistrationEnabled: cfg.RegistrationEnabled,
		},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"driver", cfg.DBDriver,
			"email_match", cfg.EmailMatch,
			"token_ttl", cfg.TokenTTL,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		return
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
