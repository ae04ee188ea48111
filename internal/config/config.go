package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	CheckoutReturnURL string
	MercadoPago       MercadoPagoConfig
	Mail              MailConfig
	Logging           LoggingConfig
}

type MercadoPagoConfig struct {
	AccessToken   string
	WebhookSecret string
	AllowUnsigned bool
	BaseURL       string
	Sandbox       bool
}

type MailConfig struct {
	ResendAPIKey string
	From         string
	ReplyTo      string
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:               getenv("APP_ENV", "dev"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		CheckoutReturnURL: os.Getenv("CHECKOUT_RETURN_URL"),
		MercadoPago: MercadoPagoConfig{
			AccessToken:   os.Getenv("MP_ACCESS_TOKEN"),
			WebhookSecret: os.Getenv("MP_WEBHOOK_SECRET"),
			AllowUnsigned: getenvBool("MP_ALLOW_UNSIGNED_WEBHOOKS", false),
			BaseURL:       getenv("MP_BASE_URL", "https://api.mercadopago.com"),
			Sandbox:       getenvBool("MP_SANDBOX", false),
		},
		Mail: MailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			From:         getenv("MAIL_FROM", "Caídos del Zarzo <inscripciones@caidosdelzarzo.co>"),
			ReplyTo:      getenv("MAIL_REPLY_TO", "info@caidosdelzarzo.co"),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MercadoPago.AccessToken == "" {
		return nil, fmt.Errorf("MP_ACCESS_TOKEN is required")
	}
	if cfg.CheckoutReturnURL == "" {
		return nil, fmt.Errorf("CHECKOUT_RETURN_URL is required")
	}
	if cfg.MercadoPago.WebhookSecret == "" && !cfg.MercadoPago.AllowUnsigned {
		return nil, fmt.Errorf("MP_WEBHOOK_SECRET is required (set MP_ALLOW_UNSIGNED_WEBHOOKS=true to accept unsigned webhooks)")
	}

	return cfg, nil
}

// LoadWorker is Load plus the mail-sender credentials, which only the
// worker binary needs.
func LoadWorker() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.Mail.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return parsed
}
