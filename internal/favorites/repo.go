package favorites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
)

// Repository persists client-merchant favorites.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to favorite operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts the pair and ignores duplicates, so favoriting twice is a
// no-op.
func (r *Repository) Add(ctx context.Context, clientID, merchantID uuid.UUID) error {
	favorite := &models.Favorite{
		ID:         uuid.New(),
		ClientID:   clientID,
		MerchantID: merchantID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "merchant_id"}},
			DoNothing: true,
		}).
		Create(favorite).Error
}

// Remove deletes the pair if it exists and reports how many rows went away.
func (r *Repository) Remove(ctx context.Context, clientID, merchantID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("client_id = ? AND merchant_id = ?", clientID, merchantID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

type favoriteMerchantRecord struct {
	FavoriteID  uuid.UUID `gorm:"column:favorite_id"`
	MerchantID  uuid.UUID `gorm:"column:merchant_id"`
	CompanyName string    `gorm:"column:company_name"`
	LogoURL     *string   `gorm:"column:logo_url"`
	City        *string   `gorm:"column:city"`
	CreatedAt   time.Time `gorm:"column:favorited_at"`
}

// ListByClient returns the client's favorited merchants, newest first.
func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]FavoriteDTO, error) {
	var records []favoriteMerchantRecord
	err := r.db.WithContext(ctx).
		Table("favorites f").
		Select("f.id AS favorite_id, f.merchant_id, f.created_at AS favorited_at, m.company_name, m.logo_url, m.city").
		Joins("JOIN merchants m ON m.id = f.merchant_id").
		Where("f.client_id = ?", clientID).
		Order("f.created_at DESC, f.id DESC").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	items := make([]FavoriteDTO, 0, len(records))
	for _, record := range records {
		items = append(items, FavoriteDTO{
			ID:          record.FavoriteID,
			MerchantID:  record.MerchantID,
			CompanyName: record.CompanyName,
			LogoURL:     record.LogoURL,
			City:        record.City,
			CreatedAt:   record.CreatedAt,
		})
	}
	return items, nil
}

// ClientIDsFor returns the ids of every client who favorited the merchant.
func (r *Repository) ClientIDsFor(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("merchant_id = ?", merchantID).
		Order("created_at ASC").
		Pluck("client_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
