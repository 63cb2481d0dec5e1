package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
)

type favoriteRepository interface {
	Add(ctx context.Context, clientID, merchantID uuid.UUID) error
	Remove(ctx context.Context, clientID, merchantID uuid.UUID) (int64, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]FavoriteDTO, error)
	ClientIDsFor(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error)
}

type merchantLookup interface {
	FindMerchantByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

// Service exposes favorite management for clients.
type Service interface {
	Add(ctx context.Context, clientID, merchantID uuid.UUID) error
	Remove(ctx context.Context, clientID, merchantID uuid.UUID) error
	List(ctx context.Context, clientID uuid.UUID) ([]FavoriteDTO, error)

	// ClientIDsFor feeds the availability fan-out when a favorited
	// merchant lists a new offer.
	ClientIDsFor(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	repo      favoriteRepository
	merchants merchantLookup
}

// NewService builds a favorites service with the provided repositories.
func NewService(repo favoriteRepository, merchants merchantLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("favorites repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant lookup required")
	}
	return &service{repo: repo, merchants: merchants}, nil
}

func (s *service) Add(ctx context.Context, clientID, merchantID uuid.UUID) error {
	if clientID == uuid.Nil || merchantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client and merchant ids required")
	}

	if _, err := s.merchants.FindMerchantByID(ctx, merchantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	if err := s.repo.Add(ctx, clientID, merchantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store favorite")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, clientID, merchantID uuid.UUID) error {
	if clientID == uuid.Nil || merchantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client and merchant ids required")
	}

	removed, err := s.repo.Remove(ctx, clientID, merchantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "favorite not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, clientID uuid.UUID) ([]FavoriteDTO, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}

	items, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	return items, nil
}

func (s *service) ClientIDsFor(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}

	ids, err := s.repo.ClientIDsFor(ctx, merchantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorite audience")
	}
	return ids, nil
}
