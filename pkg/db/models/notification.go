package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/pkg/enums"
)

// Notification stores the in-app copy of each dispatched push event.
type Notification struct {
	ID            uuid.UUID               `gorm:"type:uuid;primaryKey"`
	RecipientID   uuid.UUID               `gorm:"column:recipient_id;type:uuid;not null;index"`
	RecipientKind enums.RecipientKind     `gorm:"column:recipient_kind;type:recipient_kind;not null"`
	Event         enums.NotificationEvent `gorm:"column:event;type:notification_event;not null"`
	Title         string                  `gorm:"type:text;not null"`
	Message       string                  `gorm:"type:text;not null"`
	ReadAt        *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}
