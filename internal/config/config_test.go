package config

import (
	"strings"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/cdzgr_test")
	t.Setenv("MP_ACCESS_TOKEN", "test-token")
	t.Setenv("CHECKOUT_RETURN_URL", "https://caidosdelzarzo.co/")
	t.Setenv("MP_WEBHOOK_SECRET", "secret")
	t.Setenv("MP_ALLOW_UNSIGNED_WEBHOOKS", "")
	t.Setenv("RESEND_API_KEY", "")
}

func TestLoad(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("default http addr = %q", cfg.HTTPAddr)
	}
	if cfg.MercadoPago.BaseURL != "https://api.mercadopago.com" {
		t.Errorf("default mp base url = %q", cfg.MercadoPago.BaseURL)
	}
	if cfg.MercadoPago.AllowUnsigned {
		t.Error("AllowUnsigned defaulted to true")
	}
}

func TestLoad_RequiredVariables(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{name: "database url", unset: "DATABASE_URL"},
		{name: "access token", unset: "MP_ACCESS_TOKEN"},
		{name: "checkout return url", unset: "CHECKOUT_RETURN_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.unset, "")
			if _, err := Load(); err == nil {
				t.Fatalf("Load() succeeded without %s", tc.unset)
			}
		})
	}
}

func TestLoad_UnsignedWebhooksNeedOptIn(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MP_WEBHOOK_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded without webhook secret or opt-in")
	}
	if !strings.Contains(err.Error(), "MP_ALLOW_UNSIGNED_WEBHOOKS") {
		t.Fatalf("error does not name the opt-in flag: %v", err)
	}

	t.Setenv("MP_ALLOW_UNSIGNED_WEBHOOKS", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with opt-in: %v", err)
	}
	if !cfg.MercadoPago.AllowUnsigned {
		t.Fatal("AllowUnsigned not set")
	}
}

func TestLoadWorker_RequiresMailKey(t *testing.T) {
	setBaseEnv(t)
	if _, err := LoadWorker(); err == nil {
		t.Fatal("LoadWorker() succeeded without RESEND_API_KEY")
	}

	t.Setenv("RESEND_API_KEY", "re-test")
	cfg, err := LoadWorker()
	if err != nil {
		t.Fatalf("LoadWorker(): %v", err)
	}
	if cfg.Mail.ResendAPIKey != "re-test" {
		t.Fatalf("resend key = %q", cfg.Mail.ResendAPIKey)
	}
}
