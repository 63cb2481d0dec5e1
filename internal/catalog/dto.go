package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
)

// OfferDTO exposes offer data on the merchant surface.
type OfferDTO struct {
	ID                uuid.UUID `json:"id"`
	MerchantID        uuid.UUID `json:"merchant_id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description,omitempty"`
	OriginalPrice     int64     `json:"original_price_cents"`
	DiscountedPrice   int64     `json:"discounted_price_cents"`
	QuantityTotal     int       `json:"quantity_total"`
	QuantityAvailable int       `json:"quantity_available"`
	PickupStart       time.Time `json:"pickup_start"`
	PickupEnd         time.Time `json:"pickup_end"`
	ImageURL          *string   `json:"image_url,omitempty"`
	IsActive          bool      `json:"is_active"`
	ExpiresAt         time.Time `json:"expires_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateOfferInput holds creation-time data for a new offer.
type CreateOfferInput struct {
	Title           string
	Description     *string
	OriginalPrice   int64
	DiscountedPrice int64
	Quantity        int
	PickupStart     time.Time
	PickupEnd       time.Time
	ImageURL        *string
	ExpiresAt       *time.Time
}

// UpdateOfferInput captures the mutable offer fields. QuantityDelta shifts
// both the total and available counters by the same amount so units already
// reserved stay accounted for.
type UpdateOfferInput struct {
	Title           *string
	Description     *string
	OriginalPrice   *int64
	DiscountedPrice *int64
	QuantityDelta   *int
	PickupStart     *time.Time
	PickupEnd       *time.Time
	ImageURL        *string
	ExpiresAt       *time.Time
}

// FromModel maps the persisted offer into a DTO.
func FromModel(m *models.Offer) *OfferDTO {
	if m == nil {
		return nil
	}
	return &OfferDTO{
		ID:                m.ID,
		MerchantID:        m.MerchantID,
		Title:             m.Title,
		Description:       m.Description,
		OriginalPrice:     m.OriginalPrice,
		DiscountedPrice:   m.DiscountedPrice,
		QuantityTotal:     m.QuantityTotal,
		QuantityAvailable: m.QuantityAvailable,
		PickupStart:       m.PickupStart,
		PickupEnd:         m.PickupEnd,
		ImageURL:          m.ImageURL,
		IsActive:          m.IsActive,
		ExpiresAt:         m.ExpiresAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
