package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuCategory groups menu items for browsing. BotVisible gates what the
// conversational flow lists; the dashboard may carry hidden categories.
type MenuCategory struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	SortOrder    int       `gorm:"column:sort_order;not null;default:0"`
	BotVisible   bool      `gorm:"column:bot_visible;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// MenuItem is one orderable item. BasePriceCents is in minor units; the
// resolved cart price adds the chosen variant adjustment and addon prices.
type MenuItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID   uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null;index"`
	CategoryID     uuid.UUID `gorm:"column:category_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	Description    string    `gorm:"column:description"`
	BasePriceCents int       `gorm:"column:base_price_cents;not null"`
	ImageURL       *string   `gorm:"column:image_url"`
	// No gorm default tags on these flags: gorm skips zero-value fields
	// that carry a default, which would turn an explicit false into true.
	IsAvailable bool          `gorm:"column:is_available;not null"`
	BotVisible  bool          `gorm:"column:bot_visible;not null"`
	Variants    []ItemVariant `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
	Addons      []ItemAddon   `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// ItemVariant is a mutually exclusive size/type choice with a price
// adjustment relative to the item's base price.
type ItemVariant struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuItemID           uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;index"`
	Name                 string    `gorm:"column:name;not null"`
	PriceAdjustmentCents int       `gorm:"column:price_adjustment_cents;not null;default:0"`
	SortOrder            int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ItemAddon is an optional, multi-selectable extra with its own price.
type ItemAddon struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuItemID uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int       `gorm:"column:price_cents;not null;default:0"`
	SortOrder  int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
