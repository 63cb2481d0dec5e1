package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer is a sellable surplus-food listing with a bounded inventory counter.
// quantity_available is only mutated through the guarded paths in
// internal/reservations and internal/catalog; 0 <= available <= total holds
// at all times.
type Offer struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID        uuid.UUID `gorm:"column:merchant_id;type:uuid;not null;index"`
	Title             string    `gorm:"column:title;not null"`
	Description       *string   `gorm:"column:description"`
	OriginalPrice     int64     `gorm:"column:original_price_cents;not null"`
	DiscountedPrice   int64     `gorm:"column:discounted_price_cents;not null"`
	QuantityTotal     int       `gorm:"column:quantity_total;not null"`
	QuantityAvailable int       `gorm:"column:quantity_available;not null"`
	PickupStart       time.Time `gorm:"column:pickup_start;not null"`
	PickupEnd         time.Time `gorm:"column:pickup_end;not null"`
	ImageURL          *string   `gorm:"column:image_url"`
	IsActive          bool      `gorm:"column:is_active;not null"`
	ExpiresAt         time.Time `gorm:"column:expires_at;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
