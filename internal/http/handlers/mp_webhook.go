package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/alejolo311/CDZGR/internal/auth"
	"github.com/alejolo311/CDZGR/internal/payments"
	"github.com/alejolo311/CDZGR/internal/repository"
)

type mpWebhookEvent struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID interface{} `json:"id"`
	} `json:"data"`
}

type mpWebhookAck struct {
	OK              bool   `json:"ok"`
	Estado          string `json:"estado,omitempty"`
	Matched         string `json:"matched,omitempty"`
	FirstCompletion bool   `json:"firstCompletion,omitempty"`
	NoChange        bool   `json:"noChange,omitempty"`
	Skipped         bool   `json:"skipped,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// MPWebhookProbe answers the processor's registration-time GET check.
func (h *Handler) MPWebhookProbe(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// MPWebhook processes a payment notification. Deliveries are
// at-least-once: every path below is safe to replay, and only outcomes
// a redelivery could change (upstream or store failures) return
// non-200.
func (h *Handler) MPWebhook(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var event mpWebhookEvent
	if err := decoder.Decode(&event); err != nil {
		logger.Warn("mp_webhook", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// IPN notifications carry `type`, configured webhooks carry `action`.
	eventType := event.Type
	if eventType == "" {
		eventType = event.Action
	}
	dataID := normalizeDataID(event.Data.ID)

	logger.Info("mp_webhook", "status", "received", "event_type", eventType, "payment_id", dataID)

	if !strings.Contains(eventType, "payment") || dataID == "" {
		writeJSON(w, http.StatusOK, mpWebhookAck{OK: true, Skipped: true, Reason: "not a payment event"})
		return
	}

	secret := h.cfg.MercadoPago.WebhookSecret
	if secret != "" {
		err := auth.VerifyWebhookSignature(secret, dataID, r.Header.Get("x-request-id"), r.Header.Get("x-signature"))
		if err != nil {
			logger.Warn("mp_webhook", "status", "invalid_signature", "payment_id", dataID, "error", err)
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	} else {
		if !h.cfg.MercadoPago.AllowUnsigned {
			writeError(w, http.StatusUnauthorized, "webhook signing is not configured")
			return
		}
		logger.Warn("mp_webhook", "status", "unsigned_accepted", "payment_id", dataID,
			"detail", "MP_WEBHOOK_SECRET is not set; accepting unverified webhook")
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	payment, err := h.mercadopago.GetPayment(ctx, dataID)
	if err != nil {
		logger.Error("mp_webhook", "status", "mp_api_error", "payment_id", dataID, "error", err)
		writeError(w, http.StatusBadGateway, upstreamMessage(err))
		return
	}

	logger.Info("mp_webhook", "status", "fetched", "payment_id", dataID,
		"mp_status", payment.Status, "status_detail", payment.StatusDetail,
		"external_reference", payment.ExternalReference)

	reference := strings.TrimSpace(payment.ExternalReference)
	if reference == "" {
		logger.Warn("mp_webhook", "status", "no_external_reference", "payment_id", dataID)
		writeJSON(w, http.StatusOK, mpWebhookAck{OK: true, Skipped: true, Reason: "no external_reference"})
		return
	}

	estado := payments.MapStatus(payment.Status)

	result, err := h.repo.ReconcilePayment(ctx, reference, estado)
	if err != nil {
		logger.Error("mp_webhook", "status", "db_error", "payment_id", dataID, "external_reference", reference, "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	switch {
	case result.Matched == repository.MatchNone:
		// Unknown reference or a reference we never issued: retrying
		// cannot create the row, so acknowledge.
		logger.Warn("mp_webhook", "status", "reference_not_found", "payment_id", dataID, "external_reference", reference)
		writeJSON(w, http.StatusOK, mpWebhookAck{OK: true, NoChange: true, Estado: estado, Matched: string(result.Matched)})
	case result.FirstCompletion:
		logger.Info("mp_webhook", "status", "reconciled", "payment_id", dataID,
			"external_reference", reference, "estado", estado,
			"matched", result.Matched, "cascaded", result.CascadedParticipants)
		writeJSON(w, http.StatusOK, mpWebhookAck{OK: true, Estado: estado, Matched: string(result.Matched), FirstCompletion: true})
	default:
		logger.Info("mp_webhook", "status", "reconciled", "payment_id", dataID,
			"external_reference", reference, "estado", estado,
			"matched", result.Matched, "cascaded", result.CascadedParticipants)
		writeJSON(w, http.StatusOK, mpWebhookAck{OK: true, Estado: estado, Matched: string(result.Matched)})
	}
}

func normalizeDataID(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
