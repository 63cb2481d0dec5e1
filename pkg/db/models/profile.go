package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Profile represents a consumer principal. Rows are created lazily on first
// authenticated sight and never hard-deleted.
type Profile struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	AuthUserID  uuid.UUID      `gorm:"column:auth_user_id;type:uuid;not null;uniqueIndex"`
	DisplayName string         `gorm:"column:display_name;not null;default:''"`
	AvatarURL   *string        `gorm:"column:avatar_url"`
	Dietary     pq.StringArray `gorm:"column:dietary;type:text[]"`
	HasLocation bool           `gorm:"column:has_location;not null;default:false"`
	Longitude   *float64       `gorm:"column:longitude;type:numeric(9,6)"`
	Latitude    *float64       `gorm:"column:latitude;type:numeric(9,6)"`
	PushToken   *string        `gorm:"column:push_token"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
