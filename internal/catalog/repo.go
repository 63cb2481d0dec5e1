package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/pagination"
)

// Repository handles offer persistence for the merchant surface.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to offer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new offer row.
func (r *Repository) Create(ctx context.Context, offer *models.Offer) error {
	if offer == nil {
		return fmt.Errorf("offer is required")
	}
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(offer).Error
}

// FindByID loads an offer by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// Update writes the editable offer columns. The quantity counters never move
// through here, only through AdjustQuantity and the reservation engine's
// guarded statements, so a stale read cannot overwrite a concurrent decrement.
func (r *Repository) Update(ctx context.Context, offer *models.Offer) error {
	if offer == nil {
		return fmt.Errorf("offer is required")
	}
	return r.db.WithContext(ctx).
		Model(offer).
		Select(
			"title", "description", "original_price", "discounted_price",
			"pickup_start", "pickup_end", "image_url", "is_active",
			"expires_at", "updated_at",
		).
		Updates(offer).Error
}

// AdjustQuantity shifts quantity_total and quantity_available by delta in a
// single guarded statement. Returns false when the guard rejects the shift,
// meaning either counter would drop below zero.
func (r *Repository) AdjustQuantity(ctx context.Context, offerID uuid.UUID, delta int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND quantity_total + ? >= 0 AND quantity_available + ? >= 0", offerID, delta, delta).
		Updates(map[string]interface{}{
			"quantity_total":     gorm.Expr("quantity_total + ?", delta),
			"quantity_available": gorm.Expr("quantity_available + ?", delta),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete removes the offer row.
func (r *Repository) Delete(ctx context.Context, offerID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Offer{}, "id = ?", offerID).Error
}

// CountReservations reports how many reservations reference the offer in any
// state.
func (r *Repository) CountReservations(ctx context.Context, offerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("offer_id = ?", offerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActiveExpiringBetween returns active offers with remaining inventory
// whose expiry falls inside (from, to]. Used by the expiry sweep to warn
// merchants before listings go dark.
func (r *Repository) FindActiveExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND quantity_available > 0 AND expires_at > ? AND expires_at <= ?", true, from, to).
		Order("expires_at ASC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// DeactivateExpiredBefore flips is_active off for every offer past its expiry
// and reports how many rows changed.
func (r *Repository) DeactivateExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("is_active = ? AND expires_at <= ?", true, cutoff).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListByMerchant returns the merchant's offers newest first using cursor
// pagination. Inactive offers are included.
func (r *Repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]models.Offer, error) {
	query := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var offers []models.Offer
	if err := query.Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}
