package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

// Conversation is the single live dialogue record per customer. It is the
// only shared mutable resource in the subsystem: concurrent deliveries for
// the same conversation are serialized through the Version column
// (optimistic compare-and-swap; the losing writer is rejected).
type Conversation struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID  uuid.UUID               `gorm:"column:restaurant_id;type:uuid;not null"`
	CustomerID    uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	State         enums.ConversationState `gorm:"column:state;not null;default:'greeting'"`
	Context       types.Context           `gorm:"column:context;type:jsonb;serializer:json"`
	Cart          types.Cart              `gorm:"column:cart;type:jsonb;serializer:json"`
	Version       int64                   `gorm:"column:version;not null;default:0"`
	LastMessageAt *time.Time              `gorm:"column:last_message_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
