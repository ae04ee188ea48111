package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejolo311/CDZGR/internal/config"
	"github.com/alejolo311/CDZGR/internal/db"
	"github.com/alejolo311/CDZGR/internal/http/handlers"
	"github.com/alejolo311/CDZGR/internal/http/middleware"
	"github.com/alejolo311/CDZGR/internal/integrations/mercadopago"
	"github.com/alejolo311/CDZGR/internal/logging"
	"github.com/alejolo311/CDZGR/internal/repository"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "api")
	slog.SetDefault(logger)

	if cfg.MercadoPago.WebhookSecret == "" {
		logger.Warn("webhook_signing_disabled",
			"detail", "MP_WEBHOOK_SECRET is not set and MP_ALLOW_UNSIGNED_WEBHOOKS=true; payment webhooks are accepted WITHOUT verification")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)
	mp := mercadopago.NewClient(mercadopago.Config{
		AccessToken: cfg.MercadoPago.AccessToken,
		BaseURL:     cfg.MercadoPago.BaseURL,
		Sandbox:     cfg.MercadoPago.Sandbox,
	}, nil, logger)

	h := handlers.New(repo, mp, cfg, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/registrations", h.CreateRegistration)
	r.Post("/registrations/group", h.CreateGroupRegistration)
	r.Get("/registrations/{id}", h.GetRegistrationStatus)
	r.Post("/grupos/{id}/participantes", h.AddGroupParticipant)

	r.Get("/payments/mp/webhook", h.MPWebhookProbe)
	r.Post("/payments/mp/webhook", h.MPWebhook)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Info("api_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown", "service", "api")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
}
