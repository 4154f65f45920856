package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/middleware"
	"github.com/aulatrack/class-tracker/internal/service"
	"github.com/aulatrack/class-tracker/internal/util"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

type WebhookHandler struct {
	reconciler *service.Reconciler
	secret     string
}

func NewWebhookHandler(reconciler *service.Reconciler, secret string) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, secret: secret}
}

// Webhook processes one signed Zoom event. Recognized events are always
// acknowledged with 200, including internal no-ops and store failures:
// Zoom's retry storm on non-2xx responses is worse than a missed event,
// which the backfill sweep recovers anyway.
func (h *WebhookHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	event := middleware.GetZoomEvent(r.Context())
	if event == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing event body"})
		return
	}

	if event.Event == zoom.EventURLValidation {
		writeJSON(w, http.StatusOK, map[string]string{
			"plainToken":     event.Payload.PlainToken,
			"encryptedToken": util.HmacSHA256(h.secret, event.Payload.PlainToken),
		})
		return
	}

	if err := h.reconciler.Dispatch(r.Context(), *event); err != nil {
		log.Error().
			Str("event", event.Event).
			Str("meetingId", event.Payload.Object.MeetingID()).
			Err(err).
			Msg("webhook event processing failed")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
