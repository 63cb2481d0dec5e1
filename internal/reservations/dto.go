package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
)

// ReservationDTO exposes reservation data in API responses.
type ReservationDTO struct {
	ID         uuid.UUID               `json:"id"`
	ClientID   uuid.UUID               `json:"client_id"`
	MerchantID uuid.UUID               `json:"merchant_id"`
	OfferID    uuid.UUID               `json:"offer_id"`
	Quantity   int                     `json:"quantity"`
	Status     enums.ReservationStatus `json:"status"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// Actor identifies who is driving a state change.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

// FromModel maps the persisted reservation into a DTO.
func FromModel(m *models.Reservation) *ReservationDTO {
	if m == nil {
		return nil
	}
	return &ReservationDTO{
		ID:         m.ID,
		ClientID:   m.ClientID,
		MerchantID: m.MerchantID,
		OfferID:    m.OfferID,
		Quantity:   m.Quantity,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
