package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/api/responses"
	"github.com/mesaflow/mesaflow-backend/api/validators"
	"github.com/mesaflow/mesaflow-backend/internal/whatsapp"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/logger"
)

type messageProcessor interface {
	Process(ctx context.Context, msg whatsapp.InboundMessage) error
}

type SimulateInboundBody struct {
	BusinessAccountID string `json:"business_account_id" validate:"required"`
	From              string `json:"from" validate:"required,min=7,max=20"`
	ProfileName       string `json:"profile_name" validate:"max=64"`
	Text              string `json:"text" validate:"max=4096"`
	ReplyID           string `json:"reply_id" validate:"max=256"`
}

// SimulateInbound feeds a hand-written message through the full pipeline
// without a WhatsApp round trip. Dev environments only; the router does not
// mount it in prod.
func SimulateInbound(proc messageProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if proc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "processor unavailable"))
			return
		}

		var body SimulateInboundBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if body.Text == "" && body.ReplyID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "text or reply_id required"))
			return
		}

		msgType := enums.MessageTypeText
		if body.ReplyID != "" {
			msgType = enums.MessageTypeInteractive
		}

		msg := whatsapp.InboundMessage{
			BusinessAccountID: body.BusinessAccountID,
			From:              body.From,
			ProfileName:       validators.SanitizeString(body.ProfileName, 64),
			ProviderMessageID: "sim:" + uuid.NewString(),
			Type:              msgType,
			Text:              validators.SanitizeString(body.Text, 4096),
			ReplyID:           body.ReplyID,
		}

		if err := proc.Process(ctx, msg); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"provider_message_id": msg.ProviderMessageID,
			"status":              "processed",
		})
	}
}
