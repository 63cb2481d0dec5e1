package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
)

// candidateCap bounds how many active offers a single discovery query pulls
// before distance filtering happens in application code.
const candidateCap = 500

// OfferWithMerchant pairs an offer row with its owning merchant.
type OfferWithMerchant struct {
	Offer    models.Offer
	Merchant models.Merchant
}

// Repository handles read-side offer queries for discovery.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to discovery queries.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns active, unexpired offers newest first, each with its
// merchant attached.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]OfferWithMerchant, error) {
	var offers []models.Offer
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND expires_at > ?", true, now).
		Order("created_at DESC, id DESC").
		Limit(candidateCap).
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return r.attachMerchants(ctx, offers)
}

// ListByMerchant returns the merchant's active, unexpired offers newest
// first. Inactive and expired listings stay off the public storefront; the
// owning merchant sees them through the catalog surface instead.
func (r *Repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, now time.Time) ([]OfferWithMerchant, error) {
	var offers []models.Offer
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND is_active = ? AND expires_at > ?", merchantID, true, now).
		Order("created_at DESC, id DESC").
		Limit(candidateCap).
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return r.attachMerchants(ctx, offers)
}

// FindByID loads a single offer with its merchant.
func (r *Repository) FindByID(ctx context.Context, offerID uuid.UUID) (*OfferWithMerchant, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, err
	}
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", offer.MerchantID).Error; err != nil {
		return nil, err
	}
	return &OfferWithMerchant{Offer: offer, Merchant: merchant}, nil
}

func (r *Repository) attachMerchants(ctx context.Context, offers []models.Offer) ([]OfferWithMerchant, error) {
	if len(offers) == 0 {
		return []OfferWithMerchant{}, nil
	}

	ids := make([]uuid.UUID, 0, len(offers))
	seen := map[uuid.UUID]struct{}{}
	for _, offer := range offers {
		if _, ok := seen[offer.MerchantID]; ok {
			continue
		}
		seen[offer.MerchantID] = struct{}{}
		ids = append(ids, offer.MerchantID)
	}

	var merchants []models.Merchant
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&merchants).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Merchant, len(merchants))
	for _, m := range merchants {
		byID[m.ID] = m
	}

	result := make([]OfferWithMerchant, 0, len(offers))
	for _, offer := range offers {
		merchant, ok := byID[offer.MerchantID]
		if !ok {
			continue
		}
		result = append(result, OfferWithMerchant{Offer: offer, Merchant: merchant})
	}
	return result, nil
}
