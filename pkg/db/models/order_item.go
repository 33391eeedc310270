package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

// OrderItem snapshots one cart line at checkout. Name, price and
// customization are copied, not referenced, so later menu edits never
// change what a historical order says it cost.
type OrderItem struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID     *uuid.UUID             `gorm:"column:menu_item_id;type:uuid"`
	Name           string                 `gorm:"column:name;not null"`
	UnitPriceCents int                    `gorm:"column:unit_price_cents;not null"`
	Quantity       int                    `gorm:"column:quantity;not null"`
	VariantName    *string                `gorm:"column:variant_name"`
	Addons         []types.AddonSelection `gorm:"column:addons;type:jsonb;serializer:json"`
	Instructions   string                 `gorm:"column:instructions"`
	LineTotalCents int                    `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
}
