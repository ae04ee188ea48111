package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendClient sends transactional mail through the Resend API.
type ResendClient struct {
	apiKey  string
	from    string
	replyTo string
	baseURL string
	client  *http.Client
}

type resendEmailRequest struct {
	From    string `json:"from"`
	ReplyTo string `json:"reply_to,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func NewResendClient(apiKey, from, replyTo string) *ResendClient {
	return &ResendClient{
		apiKey:  strings.TrimSpace(apiKey),
		from:    from,
		replyTo: replyTo,
		baseURL: defaultResendBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *ResendClient) WithBaseURL(baseURL string) *ResendClient {
	c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return c
}

// SendEmail delivers one HTML email.
func (c *ResendClient) SendEmail(ctx context.Context, to, subject, html string) error {
	if c.apiKey == "" {
		return fmt.Errorf("resend api key is required")
	}
	payload, err := json.Marshal(resendEmailRequest{
		From:    c.from,
		ReplyTo: c.replyTo,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
