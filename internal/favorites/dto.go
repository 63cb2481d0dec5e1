package favorites

import (
	"time"

	"github.com/google/uuid"
)

// FavoriteDTO is a favorited merchant card: the favorite row plus the
// merchant fields the client list renders.
type FavoriteDTO struct {
	ID          uuid.UUID `json:"id"`
	MerchantID  uuid.UUID `json:"merchant_id"`
	CompanyName string    `json:"company_name"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	City        *string   `json:"city,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
