package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/pkg/enums"
)

// Message is one immutable transcript entry. Rows are append-only; nothing
// in the subsystem updates or deletes them.
type Message struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID    uuid.UUID              `gorm:"column:conversation_id;type:uuid;not null;index"`
	Direction         enums.MessageDirection `gorm:"column:direction;not null"`
	MsgType           enums.MessageType      `gorm:"column:msg_type;not null"`
	Body              map[string]any         `gorm:"column:body;type:jsonb;serializer:json"`
	ProviderMessageID *string                `gorm:"column:provider_message_id;index"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}
