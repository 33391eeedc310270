package enums

// MessageDirection distinguishes inbound customer messages from outbound bot replies.
type MessageDirection string

const (
	MessageDirectionInbound  MessageDirection = "inbound"
	MessageDirectionOutbound MessageDirection = "outbound"
)

// String implements fmt.Stringer.
func (m MessageDirection) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MessageDirection.
func (m MessageDirection) IsValid() bool {
	return m == MessageDirectionInbound || m == MessageDirectionOutbound
}

// MessageType is the provider-level payload kind recorded on the transcript.
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeInteractive MessageType = "interactive"
	MessageTypeImage       MessageType = "image"
	MessageTypeUnsupported MessageType = "unsupported"
)

// String implements fmt.Stringer.
func (m MessageType) String() string {
	return string(m)
}
