package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gigboard/internal/api"
	"gigboard/internal/config"
	"gigboard/internal/db"
	"gigboard/internal/logger"
	"gigboard/internal/notify"
	"gigboard/internal/orchestrator"
	"gigboard/internal/payments"
	"gigboard/internal/reconciler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in production, env vars come from the environment itself.
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("configuration error: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.New(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.AppBaseURL, store, log)

	var notifier notify.Notifier
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, log)
		if err != nil {
			log.Error("telegram init failed, falling back to log notifications", "error", err)
			notifier = &notify.LogNotifier{Log: log}
		} else {
			notifier = tg
		}
	} else {
		notifier = &notify.LogNotifier{Log: log}
	}

	orc := orchestrator.New(store, gateway, notifier, cfg.ServiceFee, log)
	rec := reconciler.New(cfg.StripeWebhookSecret, store, orc, notifier, log)

	handler := api.NewHandler(orc, store, rec, log)
	router := api.NewRouter(handler, cfg.JWTSecret, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", "error", err)
	}
}
