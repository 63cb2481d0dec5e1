package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite marks a merchant a client wants to hear about. One row per
// client-merchant pair.
type Favorite struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ClientID   uuid.UUID `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_favorites_client_merchant"`
	MerchantID uuid.UUID `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:idx_favorites_client_merchant;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
