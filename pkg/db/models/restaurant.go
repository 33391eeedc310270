package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is the tenant record. BusinessAccountID is the WhatsApp
// phone-number id the provider sends on every webhook delivery; it is the
// key the tenant resolver routes on.
type Restaurant struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string    `gorm:"column:name;not null"`
	BusinessAccountID string    `gorm:"column:business_account_id;not null;uniqueIndex"`
	BotEnabled        bool      `gorm:"column:bot_enabled;not null;default:false"`
	GreetingText      string    `gorm:"column:greeting_text"`
	Currency          string    `gorm:"column:currency;not null;default:'KES'"`
	// CredentialRef names the secret holding this tenant's WhatsApp API
	// token; the token itself is never stored in the row.
	CredentialRef string    `gorm:"column:credential_ref"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
