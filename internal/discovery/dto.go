package discovery

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
)

// MerchantSummaryDTO is the slice of merchant data shown on offer cards.
type MerchantSummaryDTO struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	District    *string   `json:"district,omitempty"`
	City        *string   `json:"city,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Rating      float64   `json:"rating"`
}

// EnrichedOfferDTO is an offer decorated with merchant context, the computed
// discount percentage, and, when the caller supplied a location, the distance
// to the merchant.
type EnrichedOfferDTO struct {
	ID                uuid.UUID          `json:"id"`
	Title             string             `json:"title"`
	Description       *string            `json:"description,omitempty"`
	OriginalPrice     int64              `json:"original_price_cents"`
	DiscountedPrice   int64              `json:"discounted_price_cents"`
	DiscountPercent   int                `json:"discount_percent"`
	QuantityAvailable int                `json:"quantity_available"`
	PickupStart       time.Time          `json:"pickup_start"`
	PickupEnd         time.Time          `json:"pickup_end"`
	ImageURL          *string            `json:"image_url,omitempty"`
	IsActive          bool               `json:"is_active"`
	ExpiresAt         time.Time          `json:"expires_at"`
	CreatedAt         time.Time          `json:"created_at"`
	Merchant          MerchantSummaryDTO `json:"merchant"`
	DistanceMeters    *float64           `json:"distance_m,omitempty"`
}

var oneHundred = decimal.NewFromInt(100)

// DiscountPercent computes the integer saving percentage, rounding half away
// from zero so an 80 to 30 markdown reads as 63 percent.
func DiscountPercent(originalCents, discountedCents int64) int {
	if originalCents <= 0 || discountedCents >= originalCents {
		return 0
	}
	saving := decimal.NewFromInt(originalCents - discountedCents)
	percent := saving.Div(decimal.NewFromInt(originalCents)).Mul(oneHundred).Round(0)
	return int(percent.IntPart())
}

func enrich(offer *models.Offer, merchant *models.Merchant, distance *float64) EnrichedOfferDTO {
	dto := EnrichedOfferDTO{
		ID:                offer.ID,
		Title:             offer.Title,
		Description:       offer.Description,
		OriginalPrice:     offer.OriginalPrice,
		DiscountedPrice:   offer.DiscountedPrice,
		DiscountPercent:   DiscountPercent(offer.OriginalPrice, offer.DiscountedPrice),
		QuantityAvailable: offer.QuantityAvailable,
		PickupStart:       offer.PickupStart,
		PickupEnd:         offer.PickupEnd,
		ImageURL:          offer.ImageURL,
		IsActive:          offer.IsActive,
		ExpiresAt:         offer.ExpiresAt,
		CreatedAt:         offer.CreatedAt,
		DistanceMeters:    distance,
	}
	if merchant != nil {
		dto.Merchant = MerchantSummaryDTO{
			ID:          merchant.ID,
			CompanyName: merchant.CompanyName,
			District:    merchant.District,
			City:        merchant.City,
			LogoURL:     merchant.LogoURL,
			Latitude:    merchant.Latitude,
			Longitude:   merchant.Longitude,
			Rating:      merchant.Rating,
		}
	}
	return dto
}
