package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/pagination"
)

type offerRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) error
	AdjustQuantity(ctx context.Context, offerID uuid.UUID, delta int) (bool, error)
	Delete(ctx context.Context, offerID uuid.UUID) error
	CountReservations(ctx context.Context, offerID uuid.UUID) (int64, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]models.Offer, error)
}

type merchantLookup interface {
	FindMerchantByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

type favoriteAudience interface {
	ClientIDsFor(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error)
}

// Service exposes offer management for merchants.
type Service interface {
	Create(ctx context.Context, merchantID uuid.UUID, input CreateOfferInput) (*OfferDTO, error)
	Update(ctx context.Context, merchantID, offerID uuid.UUID, input UpdateOfferInput) (*OfferDTO, error)
	SetActive(ctx context.Context, merchantID, offerID uuid.UUID, active bool) (*OfferDTO, error)
	Delete(ctx context.Context, merchantID, offerID uuid.UUID) error
	ListOwn(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]OfferDTO, string, error)
}

type service struct {
	repo      offerRepository
	merchants merchantLookup
	audience  favoriteAudience
	events    reservations.EventPublisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds a catalog service with the provided repositories. The
// audience and event publisher are optional; without them, offers are never
// fanned out to favoriting clients.
func NewService(repo offerRepository, merchants merchantLookup, audience favoriteAudience, events reservations.EventPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offer repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant lookup required")
	}
	return &service{
		repo:      repo,
		merchants: merchants,
		audience:  audience,
		events:    events,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, merchantID uuid.UUID, input CreateOfferInput) (*OfferDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	merchant, err := s.merchants.FindMerchantByID(ctx, merchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	expiresAt, err := s.resolveExpiry(input.ExpiresAt, input.PickupEnd, merchant.Timezone)
	if err != nil {
		return nil, err
	}

	offer := &models.Offer{
		MerchantID:        merchantID,
		Title:             strings.TrimSpace(input.Title),
		Description:       input.Description,
		OriginalPrice:     input.OriginalPrice,
		DiscountedPrice:   input.DiscountedPrice,
		QuantityTotal:     input.Quantity,
		QuantityAvailable: input.Quantity,
		PickupStart:       input.PickupStart,
		PickupEnd:         input.PickupEnd,
		ImageURL:          input.ImageURL,
		IsActive:          true,
		ExpiresAt:         expiresAt,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}

	s.notifyFavorites(ctx, offer)
	return FromModel(offer), nil
}

// notifyFavorites tells every client who favorited the merchant that an offer
// is available. Best effort: failures are logged and never surface to the
// merchant's write.
func (s *service) notifyFavorites(ctx context.Context, offer *models.Offer) {
	if s.events == nil || s.audience == nil {
		return
	}

	clientIDs, err := s.audience.ClientIDsFor(ctx, offer.MerchantID)
	if err != nil {
		s.warn(ctx, offer.ID, "load favorite audience failed", err)
		return
	}

	for _, clientID := range clientIDs {
		event := reservations.Event{
			Type:       enums.EventFavoriteOfferAvailable,
			OfferID:    offer.ID,
			OfferTitle: offer.Title,
			ClientID:   clientID,
			MerchantID: offer.MerchantID,
			OccurredAt: s.now(),
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.warn(ctx, offer.ID, "publish favorite event failed", err)
		}
	}
}

func (s *service) warn(ctx context.Context, offerID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"offer_id": offerID.String(),
		"error":    err.Error(),
	}), msg)
}

// resolveExpiry defaults a missing expiry to the end of the pickup day in the
// merchant's local timezone.
func (s *service) resolveExpiry(explicit *time.Time, pickupEnd time.Time, tz string) (time.Time, error) {
	if explicit != nil {
		if explicit.Before(s.now()) {
			return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be in the future")
		}
		return *explicit, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	local := pickupEnd.In(loc)
	endOfDay := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 0, loc)
	return endOfDay, nil
}

func (s *service) Update(ctx context.Context, merchantID, offerID uuid.UUID, input UpdateOfferInput) (*OfferDTO, error) {
	offer, err := s.findOwned(ctx, merchantID, offerID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		offer.Title = trimmed
	}
	if input.Description != nil {
		offer.Description = input.Description
	}
	if input.OriginalPrice != nil {
		offer.OriginalPrice = *input.OriginalPrice
	}
	if input.DiscountedPrice != nil {
		offer.DiscountedPrice = *input.DiscountedPrice
	}
	if offer.OriginalPrice < 0 || offer.DiscountedPrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if offer.DiscountedPrice >= offer.OriginalPrice {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discounted price must be below original price")
	}
	if input.PickupStart != nil {
		offer.PickupStart = *input.PickupStart
	}
	if input.PickupEnd != nil {
		offer.PickupEnd = *input.PickupEnd
	}
	if !offer.PickupEnd.After(offer.PickupStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup window must end after it starts")
	}
	if input.ImageURL != nil {
		offer.ImageURL = input.ImageURL
	}
	if input.ExpiresAt != nil {
		if input.ExpiresAt.Before(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be in the future")
		}
		offer.ExpiresAt = *input.ExpiresAt
	}

	if err := s.repo.Update(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
	}

	if input.QuantityDelta != nil && *input.QuantityDelta != 0 {
		ok, err := s.repo.AdjustQuantity(ctx, offer.ID, *input.QuantityDelta)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust quantity")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "quantity adjustment would drop a counter below zero")
		}
		offer, err = s.repo.FindByID(ctx, offer.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
		}
	}

	return FromModel(offer), nil
}

func (s *service) SetActive(ctx context.Context, merchantID, offerID uuid.UUID, active bool) (*OfferDTO, error) {
	offer, err := s.findOwned(ctx, merchantID, offerID)
	if err != nil {
		return nil, err
	}

	if offer.IsActive == active {
		return FromModel(offer), nil
	}

	offer.IsActive = active
	if err := s.repo.Update(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
	}

	// Reactivation brings the offer back in front of favoriting clients.
	if active && offer.QuantityAvailable > 0 && offer.ExpiresAt.After(s.now()) {
		s.notifyFavorites(ctx, offer)
	}
	return FromModel(offer), nil
}

func (s *service) Delete(ctx context.Context, merchantID, offerID uuid.UUID) error {
	offer, err := s.findOwned(ctx, merchantID, offerID)
	if err != nil {
		return err
	}

	count, err := s.repo.CountReservations(ctx, offer.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reservations")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "offer has reservation history, deactivate it instead")
	}

	if err := s.repo.Delete(ctx, offer.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete offer")
	}
	return nil
}

func (s *service) ListOwn(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]OfferDTO, string, error) {
	offers, err := s.repo.ListByMerchant(ctx, merchantID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(offers) > limit {
		offers = offers[:limit]
		last := offers[len(offers)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]OfferDTO, 0, len(offers))
	for i := range offers {
		dtos = append(dtos, *FromModel(&offers[i]))
	}
	return dtos, nextCursor, nil
}

// findOwned loads the offer and enforces that the acting merchant owns it.
// Cross-merchant access is Forbidden, not NotFound, so callers can tell the
// two apart.
func (s *service) findOwned(ctx context.Context, merchantID, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.MerchantID != merchantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offer belongs to another merchant")
	}
	return offer, nil
}

func validateCreate(input CreateOfferInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.OriginalPrice < 0 || input.DiscountedPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.DiscountedPrice >= input.OriginalPrice {
		return pkgerrors.New(pkgerrors.CodeValidation, "discounted price must be below original price")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.PickupStart.IsZero() || input.PickupEnd.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup window is required")
	}
	if !input.PickupEnd.After(input.PickupStart) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup window must end after it starts")
	}
	return nil
}
