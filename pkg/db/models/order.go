package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/pkg/enums"
)

// Order is created transactionally from a cart at checkout and is terminal
// as far as this subsystem is concerned: later status transitions belong to
// the staff dashboard.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID    uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null;index"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	ConversationID  *uuid.UUID        `gorm:"column:conversation_id;type:uuid;index"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	OrderType       enums.OrderType   `gorm:"column:order_type;not null"`
	TableNumber     *string           `gorm:"column:table_number"`
	DeliveryAddress *string           `gorm:"column:delivery_address"`
	TotalCents      int               `gorm:"column:total_cents;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
