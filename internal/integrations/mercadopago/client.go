package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.mercadopago.com"

type Config struct {
	AccessToken string
	BaseURL     string
	Sandbox     bool
}

type Client struct {
	baseURL     string
	accessToken string
	sandbox     bool
	httpClient  *http.Client
	logger      *slog.Logger
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago api status %d: %s", e.StatusCode, e.Body)
}

type PreferenceItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

type PreferencePhone struct {
	Number string `json:"number"`
}

type PreferencePayer struct {
	Name    string          `json:"name"`
	Surname string          `json:"surname"`
	Email   string          `json:"email"`
	Phone   PreferencePhone `json:"phone"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items               []PreferenceItem `json:"items"`
	Payer               PreferencePayer  `json:"payer"`
	BackURLs            BackURLs         `json:"back_urls"`
	AutoReturn          string           `json:"auto_return"`
	StatementDescriptor string           `json:"statement_descriptor"`
	ExternalReference   string           `json:"external_reference"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type PaymentPayer struct {
	Email string `json:"email"`
}

type Payment struct {
	ID                json.Number  `json:"id"`
	Status            string       `json:"status"`
	StatusDetail      string       `json:"status_detail"`
	ExternalReference string       `json:"external_reference"`
	TransactionAmount float64      `json:"transaction_amount"`
	Payer             PaymentPayer `json:"payer"`
	DateApproved      string       `json:"date_approved"`
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: strings.TrimSpace(cfg.AccessToken),
		sandbox:     cfg.Sandbox,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// CreatePreference registers a hosted-checkout preference and returns
// it. The idempotency key protects against double submits of the same
// registration form.
func (c *Client) CreatePreference(ctx context.Context, idempotencyKey string, in PreferenceRequest) (Preference, error) {
	var out Preference
	payload, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	headers := map[string]string{}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		headers["X-Idempotency-Key"] = key
	}
	body, err := c.do(ctx, http.MethodPost, "/checkout/preferences", payload, headers)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode preference response: %w", err)
	}
	if strings.TrimSpace(out.InitPoint) == "" {
		return out, fmt.Errorf("preference response missing init_point")
	}
	return out, nil
}

// CheckoutURL picks the redirect URL for a preference, honoring
// sandbox mode.
func (c *Client) CheckoutURL(p Preference) string {
	if c.sandbox && strings.TrimSpace(p.SandboxInitPoint) != "" {
		return p.SandboxInitPoint
	}
	return p.InitPoint
}

// GetPayment fetches the authoritative payment detail for an id taken
// from a webhook. Everything else in the webhook body is untrusted.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (Payment, error) {
	var out Payment
	pathPart := fmt.Sprintf("/v1/payments/%s", url.PathEscape(strings.TrimSpace(paymentID)))
	body, err := c.do(ctx, http.MethodGet, pathPart, nil, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode payment response: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, pathPart string, payload []byte, headers map[string]string) ([]byte, error) {
	if c.accessToken == "" {
		return nil, fmt.Errorf("mercadopago access token is required")
	}

	target := c.baseURL + pathPart

	var bodyReader io.Reader
	if len(payload) > 0 {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if c.logger != nil {
		c.logger.Debug("mercadopago_api_response", "method", method, "path", pathPart, "status", resp.StatusCode)
	}
	return body, nil
}
