package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/geo"
)

const (
	// DefaultRadiusMeters is used when a nearby query omits the radius.
	DefaultRadiusMeters = 10000
	// MaxRadiusMeters caps how wide a nearby query may reach.
	MaxRadiusMeters = 50000
)

type discoveryRepository interface {
	ListActive(ctx context.Context, now time.Time) ([]OfferWithMerchant, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, now time.Time) ([]OfferWithMerchant, error)
	FindByID(ctx context.Context, offerID uuid.UUID) (*OfferWithMerchant, error)
}

// Service exposes the client-facing offer feed.
type Service interface {
	// Nearby returns active offers within radiusMeters of the point,
	// closest first.
	Nearby(ctx context.Context, point geo.Point, radiusMeters float64) ([]EnrichedOfferDTO, error)
	// Active returns the location-less fallback feed, newest first.
	Active(ctx context.Context) ([]EnrichedOfferDTO, error)
	// ByMerchant returns one merchant's active, unexpired offers, newest
	// first.
	ByMerchant(ctx context.Context, merchantID uuid.UUID) ([]EnrichedOfferDTO, error)
	GetByID(ctx context.Context, offerID uuid.UUID, viewer *geo.Point) (*EnrichedOfferDTO, error)
}

type service struct {
	repo discoveryRepository
	now  func() time.Time
}

// NewService builds a discovery service with the provided repository.
func NewService(repo discoveryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discovery repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Nearby(ctx context.Context, point geo.Point, radiusMeters float64) ([]EnrichedOfferDTO, error) {
	if !point.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if radiusMeters > MaxRadiusMeters {
		radiusMeters = MaxRadiusMeters
	}

	rows, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active offers")
	}

	result := make([]EnrichedOfferDTO, 0, len(rows))
	for i := range rows {
		row := rows[i]
		d := geo.DistanceMeters(point, geo.Point{
			Latitude:  row.Merchant.Latitude,
			Longitude: row.Merchant.Longitude,
		})
		if d > radiusMeters {
			continue
		}
		distance := d
		result = append(result, enrich(&row.Offer, &row.Merchant, &distance))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return *result[i].DistanceMeters < *result[j].DistanceMeters
	})
	return result, nil
}

func (s *service) Active(ctx context.Context) ([]EnrichedOfferDTO, error) {
	rows, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active offers")
	}

	result := make([]EnrichedOfferDTO, 0, len(rows))
	for i := range rows {
		result = append(result, enrich(&rows[i].Offer, &rows[i].Merchant, nil))
	}
	return result, nil
}

func (s *service) ByMerchant(ctx context.Context, merchantID uuid.UUID) ([]EnrichedOfferDTO, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id is required")
	}

	rows, err := s.repo.ListByMerchant(ctx, merchantID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merchant offers")
	}

	result := make([]EnrichedOfferDTO, 0, len(rows))
	for i := range rows {
		result = append(result, enrich(&rows[i].Offer, &rows[i].Merchant, nil))
	}
	return result, nil
}

func (s *service) GetByID(ctx context.Context, offerID uuid.UUID, viewer *geo.Point) (*EnrichedOfferDTO, error) {
	row, err := s.repo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}

	var distance *float64
	if viewer != nil && viewer.Valid() {
		d := geo.DistanceMeters(*viewer, geo.Point{
			Latitude:  row.Merchant.Latitude,
			Longitude: row.Merchant.Longitude,
		})
		distance = &d
	}

	dto := enrich(&row.Offer, &row.Merchant, distance)
	return &dto, nil
}
