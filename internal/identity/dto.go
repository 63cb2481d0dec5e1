package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
)

// ProfileDTO exposes safe consumer data in API responses.
type ProfileDTO struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Dietary     []string  `json:"dietary,omitempty"`
	HasLocation bool      `json:"has_location"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MerchantDTO exposes safe merchant data in API responses.
type MerchantDTO struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	AddressLine *string   `json:"address_line,omitempty"`
	District    *string   `json:"district,omitempty"`
	City        *string   `json:"city,omitempty"`
	Longitude   float64   `json:"longitude"`
	Latitude    float64   `json:"latitude"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	Timezone    string    `json:"timezone"`
	Verified    bool      `json:"verified"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterInput captures the data required to create an account.
type RegisterInput struct {
	Email    string
	Password string
	Role     enums.Role

	// Client fields.
	DisplayName string

	// Merchant fields.
	CompanyName string
	Latitude    *float64
	Longitude   *float64
	Timezone    string
}

// LoginInput carries credentials for an existing account.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResultDTO is the payload returned after register/login.
type AuthResultDTO struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Role         enums.Role   `json:"role"`
	Profile      *ProfileDTO  `json:"profile,omitempty"`
	Merchant     *MerchantDTO `json:"merchant,omitempty"`
}

// UpdateProfileInput captures the mutable consumer fields. Nil pointers leave
// the stored value untouched.
type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
	Dietary     *[]string
}

// UpdateMerchantInput captures the mutable merchant fields.
type UpdateMerchantInput struct {
	CompanyName *string
	AddressLine *string
	District    *string
	City        *string
	LogoURL     *string
	Timezone    *string
}

// ProfileFromModel maps the persisted profile into a DTO.
func ProfileFromModel(m *models.Profile) *ProfileDTO {
	if m == nil {
		return nil
	}
	return &ProfileDTO{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Dietary:     m.Dietary,
		HasLocation: m.HasLocation,
		Longitude:   m.Longitude,
		Latitude:    m.Latitude,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// MerchantFromModel maps the persisted merchant into a DTO.
func MerchantFromModel(m *models.Merchant) *MerchantDTO {
	if m == nil {
		return nil
	}
	return &MerchantDTO{
		ID:          m.ID,
		CompanyName: m.CompanyName,
		AddressLine: m.AddressLine,
		District:    m.District,
		City:        m.City,
		Longitude:   m.Longitude,
		Latitude:    m.Latitude,
		LogoURL:     m.LogoURL,
		Timezone:    m.Timezone,
		Verified:    m.Verified,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
