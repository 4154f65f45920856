package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/util"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

type contextKey string

const ZoomEventContextKey contextKey = "zoomEvent"

func GetZoomEvent(ctx context.Context) *zoom.Event {
	if event, ok := ctx.Value(ZoomEventContextKey).(*zoom.Event); ok {
		return event
	}
	return nil
}

// ZoomSignatureMiddleware verifies the v0 HMAC signature Zoom attaches to
// every webhook delivery: HMAC-SHA256(secret, "v0:" + timestamp + ":" +
// body), hex encoded and prefixed with "v0=". URL validation handshakes
// pass through unverified because Zoom sends them while the endpoint
// secret is still being provisioned.
type ZoomSignatureMiddleware struct {
	secret string
}

func NewZoomSignatureMiddleware(secret string) *ZoomSignatureMiddleware {
	return &ZoomSignatureMiddleware{secret: secret}
}

func (m *ZoomSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("zoom signature middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var event zoom.Event
		if err := json.Unmarshal(body, &event); err != nil {
			log.Warn().Err(err).Msg("zoom signature middleware: failed to parse body")
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid JSON body",
			})
			return
		}

		ctx := context.WithValue(r.Context(), ZoomEventContextKey, &event)

		if event.Event == zoom.EventURLValidation {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Fail closed: without a secret no delivery can be authenticated.
		if m.secret == "" {
			log.Error().Msg("zoom signature middleware: ZOOM_WEBHOOK_SECRET is not configured, rejecting event")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Webhook secret not configured",
			})
			return
		}

		signature := r.Header.Get("X-Zm-Signature")
		timestamp := r.Header.Get("X-Zm-Request-Timestamp")
		if signature == "" || timestamp == "" {
			log.Warn().Msg("zoom signature middleware: missing signature headers")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing signature",
			})
			return
		}

		expected := "v0=" + util.HmacSHA256(m.secret, "v0:"+timestamp+":"+string(body))
		if !util.ConstantTimeEqual(expected, signature) {
			log.Warn().Msg("zoom signature middleware: invalid signature")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid signature",
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
