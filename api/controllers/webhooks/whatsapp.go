package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mesaflow/mesaflow-backend/api/responses"
	"github.com/mesaflow/mesaflow-backend/internal/whatsapp"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/logger"
)

const signatureHeader = "X-Hub-Signature-256"

// maxWebhookBody caps how much of a webhook payload we are willing to read.
const maxWebhookBody = 1 << 20

type MessageProcessor interface {
	Process(ctx context.Context, msg whatsapp.InboundMessage) error
}

// VerifyWhatsApp answers the Meta subscription handshake. Meta calls GET
// with hub.mode, hub.verify_token and hub.challenge; the challenge must be
// echoed verbatim on a token match.
func VerifyWhatsApp(verifyToken string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mode := q.Get("hub.mode")
		token := q.Get("hub.verify_token")
		challenge := q.Get("hub.challenge")

		if mode != "subscribe" || verifyToken == "" || token != verifyToken {
			if logg != nil {
				ctx := logg.WithFields(r.Context(), map[string]any{"hub_mode": mode})
				logg.Warn(ctx, "webhook verification rejected")
			}
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

// WhatsAppWebhook ingests Meta webhook deliveries. Payloads that cannot be
// processed safely again (malformed bodies, unknown tenants, duplicates) are
// acked with 200 so Meta stops redelivering them; only retryable failures
// surface as errors.
func WhatsAppWebhook(proc MessageProcessor, appSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if proc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook processor unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if appSecret != "" {
			sig := r.Header.Get(signatureHeader)
			if !validateMetaSignature(payload, appSecret, sig) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook signature"))
				return
			}
		}

		var envelope whatsapp.WebhookPayload
		if err := json.Unmarshal(payload, &envelope); err != nil {
			// Meta retries on anything but 2xx, and a malformed body will
			// never parse on retry. Ack it and move on.
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"error": err.Error()}), "discarding malformed webhook payload")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		messages := whatsapp.ExtractMessages(envelope)
		for _, msg := range messages {
			if err := proc.Process(ctx, msg); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		if logg != nil && len(messages) > 0 {
			logg.Info(ctx, fmt.Sprintf("processed %d webhook message(s)", len(messages)))
		}
		responses.WriteSuccess(w, nil)
	}
}

func validateMetaSignature(payload []byte, secret, header string) bool {
	digest, ok := strings.CutPrefix(header, "sha256=")
	if !ok || digest == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(digest))
}
