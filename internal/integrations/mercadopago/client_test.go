package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreatePreference(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if got := r.Header.Get("X-Idempotency-Key"); got != "cdzgr-ref-1" {
			t.Fatalf("unexpected idempotency key: %s", got)
		}

		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if raw["auto_return"] != "approved" {
			t.Fatalf("unexpected auto_return: %#v", raw["auto_return"])
		}
		if raw["statement_descriptor"] != "CAIDOS DEL ZARZO" {
			t.Fatalf("unexpected statement_descriptor: %#v", raw["statement_descriptor"])
		}
		if raw["external_reference"] != "ref-1" {
			t.Fatalf("unexpected external_reference: %#v", raw["external_reference"])
		}
		backURLs, _ := raw["back_urls"].(map[string]interface{})
		if success, _ := backURLs["success"].(string); !strings.Contains(success, "inscripcion=ok") {
			t.Fatalf("unexpected success back_url: %#v", backURLs["success"])
		}
		items, _ := raw["items"].([]interface{})
		if len(items) != 1 {
			t.Fatalf("unexpected items: %#v", raw["items"])
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "pref-1",
			"init_point":         "https://www.mercadopago.com.co/checkout/v1/redirect?pref_id=pref-1",
			"sandbox_init_point": "https://sandbox.mercadopago.com.co/checkout/v1/redirect?pref_id=pref-1",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{AccessToken: "test-token", BaseURL: srv.URL}, srv.Client(), nil)
	preference, err := client.CreatePreference(context.Background(), "cdzgr-ref-1", PreferenceRequest{
		Items: []PreferenceItem{{
			ID:         "gravel",
			Title:      "Gravel Race – Caídos del Zarzo 2026",
			Quantity:   1,
			UnitPrice:  899000,
			CurrencyID: "COP",
		}},
		Payer: PreferencePayer{Name: "Laura", Surname: "Gómez", Email: "laura@example.com"},
		BackURLs: BackURLs{
			Success: "https://caidosdelzarzo.co/?inscripcion=ok",
			Failure: "https://caidosdelzarzo.co/?inscripcion=error",
			Pending: "https://caidosdelzarzo.co/?inscripcion=pendiente",
		},
		AutoReturn:          "approved",
		StatementDescriptor: "CAIDOS DEL ZARZO",
		ExternalReference:   "ref-1",
	})
	if err != nil {
		t.Fatalf("create preference: %v", err)
	}
	if preference.InitPoint == "" {
		t.Fatal("missing init_point")
	}
	if got := client.CheckoutURL(preference); got != preference.InitPoint {
		t.Fatalf("unexpected checkout url: %s", got)
	}
}

func TestCheckoutURL_Sandbox(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{AccessToken: "t", Sandbox: true}, nil, nil)
	preference := Preference{
		InitPoint:        "https://prod.example/redirect",
		SandboxInitPoint: "https://sandbox.example/redirect",
	}
	if got := client.CheckoutURL(preference); got != preference.SandboxInitPoint {
		t.Fatalf("unexpected checkout url: %s", got)
	}
}

func TestGetPayment(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/123456789" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 123456789,
			"status":             "approved",
			"status_detail":      "accredited",
			"external_reference": "b9f8d6b4-1111-2222-3333-444455556666",
			"transaction_amount": 899000,
			"payer":              map[string]interface{}{"email": "laura@example.com"},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{AccessToken: "test-token", BaseURL: srv.URL}, srv.Client(), nil)
	payment, err := client.GetPayment(context.Background(), "123456789")
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != "approved" {
		t.Fatalf("unexpected status: %s", payment.Status)
	}
	if payment.ExternalReference != "b9f8d6b4-1111-2222-3333-444455556666" {
		t.Fatalf("unexpected reference: %s", payment.ExternalReference)
	}
	if payment.Payer.Email != "laura@example.com" {
		t.Fatalf("unexpected payer email: %s", payment.Payer.Email)
	}
}

func TestGetPayment_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal error"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{AccessToken: "test-token", BaseURL: srv.URL}, srv.Client(), nil)
	_, err := client.GetPayment(context.Background(), "42")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
}

func TestClient_MissingToken(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, nil, nil)
	if _, err := client.GetPayment(context.Background(), "1"); err == nil {
		t.Fatal("expected error without access token")
	}
}
