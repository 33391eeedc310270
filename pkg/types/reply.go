package types

// ReplyKind enumerates the closed set of outbound reply shapes.
type ReplyKind string

const (
	ReplyKindText    ReplyKind = "text"
	ReplyKindButtons ReplyKind = "buttons"
	ReplyKindList    ReplyKind = "list"
	ReplyKindImage   ReplyKind = "image"
)

// MaxButtons is the provider limit on interactive button choices.
const MaxButtons = 3

// MaxListRows is the provider limit on interactive list rows.
const MaxListRows = 10

// ReplyButton is one tappable choice on a buttons reply.
type ReplyButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ReplyListRow is one row of a sectioned list reply.
type ReplyListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ReplyListSection groups rows under a heading.
type ReplyListSection struct {
	Title string         `json:"title,omitempty"`
	Rows  []ReplyListRow `json:"rows"`
}

// ImageSpec is an image reply payload.
type ImageSpec struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Reply is the abstract outbound message produced by the conversation
// engine. Exactly one shape is populated per Kind; the renderer switches on
// Kind exhaustively.
type Reply struct {
	Kind ReplyKind `json:"kind"`

	Text string `json:"text,omitempty"`

	Buttons    []ReplyButton `json:"buttons,omitempty"`
	ButtonText string        `json:"button_text,omitempty"`

	ListButton string             `json:"list_button,omitempty"`
	Sections   []ReplyListSection `json:"sections,omitempty"`

	Image *ImageSpec `json:"image,omitempty"`
}

// TextReply builds a plain text reply.
func TextReply(text string) Reply {
	return Reply{Kind: ReplyKindText, Text: text}
}

// ButtonsReply builds an interactive button reply; choices beyond the
// provider limit are dropped.
func ButtonsReply(body string, buttons ...ReplyButton) Reply {
	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}
	return Reply{Kind: ReplyKindButtons, Text: body, Buttons: buttons}
}

// ListReply builds an interactive list reply; rows beyond the provider limit
// are dropped, trimming the trailing sections first.
func ListReply(body, button string, sections ...ReplyListSection) Reply {
	total := 0
	trimmed := make([]ReplyListSection, 0, len(sections))
	for _, section := range sections {
		if total >= MaxListRows {
			break
		}
		if total+len(section.Rows) > MaxListRows {
			section.Rows = section.Rows[:MaxListRows-total]
		}
		total += len(section.Rows)
		if len(section.Rows) > 0 {
			trimmed = append(trimmed, section)
		}
	}
	return Reply{Kind: ReplyKindList, Text: body, ListButton: button, Sections: trimmed}
}

// ImageReply builds an image reply with an optional caption.
func ImageReply(url, caption string) Reply {
	return Reply{Kind: ReplyKindImage, Image: &ImageSpec{URL: url, Caption: caption}}
}
