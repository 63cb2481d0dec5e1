package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
)

// Repository handles auth user, profile, and merchant persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to identity operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateAuthUser persists a new credential row.
func (r *Repository) CreateAuthUser(ctx context.Context, user *models.AuthUser) error {
	if user == nil {
		return fmt.Errorf("auth user is required")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

// FindAuthUserByEmail loads a credential row by its email, case-insensitively.
func (r *Repository) FindAuthUserByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAuthUserByID loads a credential row by id.
func (r *Repository) FindAuthUserByID(ctx context.Context, id uuid.UUID) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertProfile inserts a profile for the auth user if none exists yet and
// returns the stored row. Safe to call concurrently for the same principal.
func (r *Repository) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "auth_user_id"}},
			DoNothing: true,
		}).
		Create(profile).Error
	if err != nil {
		return nil, err
	}

	return r.FindProfileByAuthUser(ctx, profile.AuthUserID)
}

// FindProfileByAuthUser loads the profile owned by the given auth user.
func (r *Repository) FindProfileByAuthUser(ctx context.Context, authUserID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "auth_user_id = ?", authUserID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindProfileByID loads a profile by its id.
func (r *Repository) FindProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile saves the provided profile.
func (r *Repository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}
	return r.db.WithContext(ctx).Save(profile).Error
}

// CreateMerchant persists a new merchant row.
func (r *Repository) CreateMerchant(ctx context.Context, merchant *models.Merchant) error {
	if merchant == nil {
		return fmt.Errorf("merchant is required")
	}
	if merchant.ID == uuid.Nil {
		merchant.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(merchant).Error
}

// FindMerchantByAuthUser loads the merchant owned by the given auth user.
func (r *Repository) FindMerchantByAuthUser(ctx context.Context, authUserID uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "auth_user_id = ?", authUserID).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// FindMerchantByID loads a merchant by its id.
func (r *Repository) FindMerchantByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// UpdateMerchant saves the provided merchant.
func (r *Repository) UpdateMerchant(ctx context.Context, merchant *models.Merchant) error {
	if merchant == nil {
		return fmt.Errorf("merchant is required")
	}
	return r.db.WithContext(ctx).Save(merchant).Error
}
