package models

import (
	"time"

	"github.com/google/uuid"
)

// Merchant represents a business account publishing offers.
type Merchant struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	AuthUserID  uuid.UUID `gorm:"column:auth_user_id;type:uuid;not null;uniqueIndex"`
	CompanyName string    `gorm:"column:company_name;not null"`
	AddressLine *string   `gorm:"column:address_line"`
	District    *string   `gorm:"column:district"`
	City        *string   `gorm:"column:city"`
	Longitude   float64   `gorm:"column:longitude;type:numeric(9,6);not null"`
	Latitude    float64   `gorm:"column:latitude;type:numeric(9,6);not null"`
	LogoURL     *string   `gorm:"column:logo_url"`
	Timezone    string    `gorm:"column:timezone;not null;default:'UTC'"`
	Verified    bool      `gorm:"column:verified;not null;default:false"`
	Rating      float64   `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	PushToken   *string   `gorm:"column:push_token"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
