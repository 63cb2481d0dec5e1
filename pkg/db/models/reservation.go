package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/pkg/enums"
)

// Reservation is a client's claim on N units of an offer. merchant_id is
// denormalized from the offer for query convenience. Once terminal
// (cancelled/completed) the row is an immutable historical fact.
type Reservation struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ClientID   uuid.UUID               `gorm:"column:client_id;type:uuid;not null;index"`
	MerchantID uuid.UUID               `gorm:"column:merchant_id;type:uuid;not null;index"`
	OfferID    uuid.UUID               `gorm:"column:offer_id;type:uuid;not null;index"`
	Quantity   int                     `gorm:"column:quantity;not null"`
	Status     enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;default:'pending'"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
