package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejolo311/CDZGR/internal/config"
	"github.com/alejolo311/CDZGR/internal/integrations/mercadopago"
	"github.com/alejolo311/CDZGR/internal/rate"
	"github.com/alejolo311/CDZGR/internal/repository"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	repo            *repository.Repository
	mercadopago     *mercadopago.Client
	cfg             *config.Config
	logger          *slog.Logger
	validator       *validator.Validate
	registerLimiter *rate.WindowLimiter
}

func New(repo *repository.Repository, mp *mercadopago.Client, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:            repo,
		mercadopago:     mp,
		cfg:             cfg,
		logger:          logger,
		validator:       validator.New(),
		registerLimiter: rate.NewWindowLimiter(10, time.Minute),
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

func (h *Handler) hasPaymentConfig() bool {
	return h.mercadopago != nil && h.cfg != nil && h.cfg.MercadoPago.AccessToken != ""
}
