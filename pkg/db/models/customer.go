package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a stable identity keyed by (restaurant, WhatsApp contact).
// Created on first contact and never deleted by this subsystem.
type Customer struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex:ux_customers_restaurant_wa,priority:1"`
	WaID         string    `gorm:"column:wa_id;not null;uniqueIndex:ux_customers_restaurant_wa,priority:2"`
	DisplayName  string    `gorm:"column:display_name"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
