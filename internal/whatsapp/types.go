package whatsapp

import (
	"strings"

	"github.com/mesaflow/mesaflow-backend/pkg/enums"
)

// Meta Cloud API webhook types. Only the fields the bot reads are mapped;
// the provider sends plenty more.

// WebhookPayload is the top-level webhook delivery.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one business account entry.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single change notification.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the message data.
type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Metadata identifies the receiving business phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is a WhatsApp contact.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile has the display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// Message is one incoming customer message.
type Message struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent carries a tapped button or list row.
type InteractiveContent struct {
	Type        string        `json:"type"`
	ButtonReply *PickedChoice `json:"button_reply,omitempty"`
	ListReply   *PickedChoice `json:"list_reply,omitempty"`
}

// PickedChoice is the id/title pair of a tapped choice.
type PickedChoice struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Status is a delivery status update. The bot acknowledges these without
// processing them.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// InboundMessage is one customer message flattened out of the webhook
// envelope, ready for the processor.
type InboundMessage struct {
	// BusinessAccountID is the receiving phone number id, the tenant key.
	BusinessAccountID string
	From              string
	ProfileName       string
	ProviderMessageID string
	Type              enums.MessageType
	Text              string
	ReplyID           string
}

// ExtractMessages flattens a webhook payload into the customer messages it
// carries. Status-only deliveries produce an empty slice.
func ExtractMessages(payload WebhookPayload) []InboundMessage {
	var out []InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			value := change.Value
			names := map[string]string{}
			for _, contact := range value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, message := range value.Messages {
				out = append(out, flatten(value.Metadata.PhoneNumberID, names, message))
			}
		}
	}
	return out
}

func flatten(phoneNumberID string, names map[string]string, message Message) InboundMessage {
	inbound := InboundMessage{
		BusinessAccountID: phoneNumberID,
		From:              message.From,
		ProfileName:       names[message.From],
		ProviderMessageID: message.ID,
	}

	switch message.Type {
	case "text":
		inbound.Type = enums.MessageTypeText
		if message.Text != nil {
			inbound.Text = strings.TrimSpace(message.Text.Body)
		}
	case "interactive":
		inbound.Type = enums.MessageTypeInteractive
		if message.Interactive != nil {
			if message.Interactive.ButtonReply != nil {
				inbound.ReplyID = message.Interactive.ButtonReply.ID
				inbound.Text = message.Interactive.ButtonReply.Title
			}
			if message.Interactive.ListReply != nil {
				inbound.ReplyID = message.Interactive.ListReply.ID
				inbound.Text = message.Interactive.ListReply.Title
			}
		}
	case "image":
		inbound.Type = enums.MessageTypeImage
	default:
		inbound.Type = enums.MessageTypeUnsupported
	}
	return inbound
}
