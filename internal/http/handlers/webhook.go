package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"taproom-services/internal/jobs"
	"taproom-services/internal/square"
	"taproom-services/pkg/response"

	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// SquareWebhook serves POST /api/square/webhook. Catalog and inventory
// changes queue a menu refresh; the reconciliation itself never runs on the
// request.
func (h *Handler) SquareWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Unreadable webhook body")
		return
	}

	key := strings.TrimSpace(h.Config.SquareWebhookSignatureKey)
	switch {
	case key != "":
		if !square.VerifyWebhookSignature(key, h.webhookURL(r), body, r.Header.Get(square.SignatureHeader)) {
			h.logger().Warn("square webhook signature mismatch")
			response.Error(w, http.StatusForbidden, "INVALID_SIGNATURE", "Invalid webhook signature")
			return
		}
	case h.Config.IsProduction():
		response.Error(w, http.StatusForbidden, "WEBHOOK_DISABLED", "Webhook signature key is not configured")
		return
	}

	var event square.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid webhook payload")
		return
	}
	if !event.AffectsMenu() {
		response.Success(w, map[string]any{"queued": false})
		return
	}

	err = jobs.Enqueue(r.Context(), h.Jobs, jobs.KindCatalogRefresh, jobs.RefreshPayload{Reason: event.Type, EventID: event.EventID})
	if err != nil {
		h.logger().Error("enqueue catalog refresh failed", zap.String("eventId", event.EventID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "ENQUEUE_FAILED", "Failed to queue catalog refresh")
		return
	}
	h.logger().Info("catalog refresh queued", zap.String("type", event.Type), zap.String("eventId", event.EventID))
	response.Success(w, map[string]any{"queued": true})
}

// webhookURL is the notification URL Square signed: the configured one, or
// the URL this request arrived on.
func (h *Handler) webhookURL(r *http.Request) string {
	if u := strings.TrimSpace(h.Config.SquareWebhookURL); u != "" {
		return u
	}
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	} else if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// CronCatalogSync serves POST /api/cron/catalog-sync.
func (h *Handler) CronCatalogSync(w http.ResponseWriter, r *http.Request) {
	if err := jobs.Enqueue(r.Context(), h.Jobs, jobs.KindCatalogRefresh, jobs.RefreshPayload{Reason: "cron"}); err != nil {
		h.logger().Error("enqueue catalog refresh failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "ENQUEUE_FAILED", "Failed to queue catalog refresh")
		return
	}
	response.JSON(w, http.StatusAccepted, map[string]any{"success": true, "data": map[string]any{"queued": true}})
}
