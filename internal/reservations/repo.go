package reservations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	"github.com/sparebite/sparebite-backend/pkg/pagination"
)

// Repository handles reservation persistence and the guarded inventory
// counters on offers.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to reservation operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new reservation row.
func (r *Repository) Create(ctx context.Context, reservation *models.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is required")
	}
	return r.db.WithContext(ctx).Create(reservation).Error
}

// FindByID loads a reservation by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindOffer loads the offer a reservation points at.
func (r *Repository) FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// ReserveUnits decrements quantity_available by qty in one guarded statement.
// Returns false when the offer is missing, inactive, or short on units; the
// guard makes concurrent claims on the last unit race safely.
func (r *Repository) ReserveUnits(ctx context.Context, offerID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND is_active = ? AND quantity_available >= ?", offerID, true, qty).
		Update("quantity_available", gorm.Expr("quantity_available - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RestoreUnits returns qty units to the offer, never exceeding the total.
func (r *Repository) RestoreUnits(ctx context.Context, offerID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND quantity_available + ? <= quantity_total", offerID, qty).
		Update("quantity_available", gorm.Expr("quantity_available + ?", qty)).Error
}

// TransitionStatus flips the reservation status only when the stored status
// still matches from. Returns false when another writer got there first or
// the row is already in a different state.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListByClient returns the client's reservations newest first.
func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Reservation, error) {
	return r.list(ctx, "client_id = ?", clientID, params)
}

// ListByMerchant returns the merchant's incoming reservations newest first.
func (r *Repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]models.Reservation, error) {
	return r.list(ctx, "merchant_id = ?", merchantID, params)
}

func (r *Repository) list(ctx context.Context, where string, id uuid.UUID, params pagination.Params) ([]models.Reservation, error) {
	query := r.db.WithContext(ctx).
		Where(where, id).
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

	var rows []models.Reservation
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
