package whatsapp

import (
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

// Outbound Cloud API payloads.

type sendRequest struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *TextContent        `json:"text,omitempty"`
	Interactive      *interactiveRequest `json:"interactive,omitempty"`
	Image            *imageRequest       `json:"image,omitempty"`
}

type interactiveRequest struct {
	Type   string         `json:"type"`
	Body   *bodyText      `json:"body,omitempty"`
	Action *requestAction `json:"action,omitempty"`
}

type bodyText struct {
	Text string `json:"text"`
}

type requestAction struct {
	Buttons  []requestButton  `json:"buttons,omitempty"`
	Button   string           `json:"button,omitempty"`
	Sections []requestSection `json:"sections,omitempty"`
}

type requestButton struct {
	Type  string       `json:"type"`
	Reply PickedChoice `json:"reply"`
}

type requestSection struct {
	Title string       `json:"title,omitempty"`
	Rows  []requestRow `json:"rows"`
}

type requestRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type imageRequest struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// buildSendRequest maps the engine's abstract reply onto the provider wire
// shape. The switch is exhaustive over ReplyKind; an unknown kind degrades
// to plain text so a reply is never silently dropped.
func buildSendRequest(to string, reply types.Reply) sendRequest {
	request := sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
	}

	switch reply.Kind {
	case types.ReplyKindButtons:
		request.Type = "interactive"
		buttons := make([]requestButton, 0, len(reply.Buttons))
		for _, button := range reply.Buttons {
			buttons = append(buttons, requestButton{
				Type:  "reply",
				Reply: PickedChoice{ID: button.ID, Title: truncate(button.Title, 20)},
			})
		}
		request.Interactive = &interactiveRequest{
			Type:   "button",
			Body:   &bodyText{Text: truncate(reply.Text, 1024)},
			Action: &requestAction{Buttons: buttons},
		}
	case types.ReplyKindList:
		request.Type = "interactive"
		sections := make([]requestSection, 0, len(reply.Sections))
		for _, section := range reply.Sections {
			rows := make([]requestRow, 0, len(section.Rows))
			for _, row := range section.Rows {
				rows = append(rows, requestRow{
					ID:          row.ID,
					Title:       truncate(row.Title, 24),
					Description: truncate(row.Description, 72),
				})
			}
			sections = append(sections, requestSection{Title: truncate(section.Title, 24), Rows: rows})
		}
		button := reply.ListButton
		if button == "" {
			button = "Choose"
		}
		request.Interactive = &interactiveRequest{
			Type:   "list",
			Body:   &bodyText{Text: truncate(reply.Text, 1024)},
			Action: &requestAction{Button: truncate(button, 20), Sections: sections},
		}
	case types.ReplyKindImage:
		request.Type = "image"
		image := &imageRequest{}
		if reply.Image != nil {
			image.Link = reply.Image.URL
			image.Caption = truncate(reply.Image.Caption, 1024)
		}
		request.Image = image
	default:
		request.Type = "text"
		request.Text = &TextContent{Body: truncate(reply.Text, 4096)}
	}
	return request
}

// truncate clips to the provider's per-field character limits.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
