package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/metrics"
	"github.com/sparebite/sparebite-backend/pkg/pagination"
)

// allowedTransitions is the reservation state machine. Anything absent here
// is rejected; terminal states have no outgoing edges at all.
var allowedTransitions = map[enums.ReservationStatus]map[enums.ReservationStatus]bool{
	enums.ReservationStatusPending: {
		enums.ReservationStatusConfirmed: true,
		enums.ReservationStatusCancelled: true,
	},
	enums.ReservationStatusConfirmed: {
		enums.ReservationStatusCompleted: true,
		enums.ReservationStatusCancelled: true,
	},
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the reservation lifecycle.
type Service interface {
	Create(ctx context.Context, clientID, offerID uuid.UUID, quantity int) (*ReservationDTO, error)
	Transition(ctx context.Context, actor Actor, reservationID uuid.UUID, target enums.ReservationStatus) (*ReservationDTO, error)
	GetByID(ctx context.Context, actor Actor, reservationID uuid.UUID) (*ReservationDTO, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]ReservationDTO, string, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]ReservationDTO, string, error)
}

type service struct {
	db        txRunner
	repo      *Repository
	publisher EventPublisher
	logg      *logger.Logger
	metrics   *metrics.ReservationMetrics
	now       func() time.Time
}

// NewService builds a reservation service. Publisher, logger, and metrics
// are optional; a nil publisher silently disables event fan-out.
func NewService(db txRunner, repo *Repository, publisher EventPublisher, logg *logger.Logger, m *metrics.ReservationMetrics) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	return &service{
		db:        db,
		repo:      repo,
		publisher: publisher,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, clientID, offerID uuid.UUID, quantity int) (*ReservationDTO, error) {
	if clientID == uuid.Nil || offerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client and offer ids are required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var (
		reservation *models.Reservation
		offer       *models.Offer
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		var err error
		offer, err = txRepo.FindOffer(ctx, offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}
		if !offer.IsActive || !offer.ExpiresAt.After(s.now()) {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer is no longer available")
		}

		ok, err := txRepo.ReserveUnits(ctx, offerID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve units")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientQuantity, "not enough units available")
		}

		reservation = &models.Reservation{
			ID:         uuid.New(),
			ClientID:   clientID,
			MerchantID: offer.MerchantID,
			OfferID:    offerID,
			Quantity:   quantity,
			Status:     enums.ReservationStatusPending,
		}
		if err := txRepo.Create(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
		}
		return nil
	})
	if err != nil {
		s.countOutcome("create", err)
		return nil, err
	}

	s.countOutcome("create", nil)
	publishBestEffort(ctx, s.logg, s.publisher, Event{
		Type:          enums.EventNewReservation,
		ReservationID: reservation.ID,
		OfferID:       offer.ID,
		OfferTitle:    offer.Title,
		ClientID:      reservation.ClientID,
		MerchantID:    reservation.MerchantID,
		Quantity:      reservation.Quantity,
		OccurredAt:    s.now(),
	})
	return FromModel(reservation), nil
}

func (s *service) Transition(ctx context.Context, actor Actor, reservationID uuid.UUID, target enums.ReservationStatus) (*ReservationDTO, error) {
	if target != enums.ReservationStatusConfirmed && target != enums.ReservationStatusCancelled && target != enums.ReservationStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}

	if err := authorizeTransition(actor, reservation, target); err != nil {
		return nil, err
	}

	current := reservation.Status
	if current.IsTerminal() {
		s.countOutcome("transition", pkgerrors.New(pkgerrors.CodeAlreadyFinalized, ""))
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyFinalized, fmt.Sprintf("reservation is already %s", current))
	}
	if !allowedTransitions[current][target] {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move %s to %s", current, target))
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		ok, err := txRepo.TransitionStatus(ctx, reservationID, current, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition status")
		}
		if !ok {
			// Someone else moved the row since we read it.
			latest, err := txRepo.FindByID(ctx, reservationID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload reservation")
			}
			if latest.Status.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeAlreadyFinalized, fmt.Sprintf("reservation is already %s", latest.Status))
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move %s to %s", latest.Status, target))
		}

		if target == enums.ReservationStatusCancelled {
			if err := txRepo.RestoreUnits(ctx, reservation.OfferID, reservation.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore units")
			}
		}
		return nil
	})
	if err != nil {
		s.countOutcome("transition", err)
		return nil, err
	}

	reservation.Status = target
	s.countOutcome("transition", nil)

	if eventType, ok := transitionEvent(actor.Role, current, target); ok {
		offerTitle := ""
		if offer, err := s.repo.FindOffer(ctx, reservation.OfferID); err == nil {
			offerTitle = offer.Title
		}
		publishBestEffort(ctx, s.logg, s.publisher, Event{
			Type:          eventType,
			ReservationID: reservation.ID,
			OfferID:       reservation.OfferID,
			OfferTitle:    offerTitle,
			ClientID:      reservation.ClientID,
			MerchantID:    reservation.MerchantID,
			Quantity:      reservation.Quantity,
			OccurredAt:    s.now(),
		})
	}
	return FromModel(reservation), nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, reservationID uuid.UUID) (*ReservationDTO, error) {
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	if !actorOwns(actor, reservation) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reservation belongs to another principal")
	}
	return FromModel(reservation), nil
}

func (s *service) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]ReservationDTO, string, error) {
	rows, err := s.repo.ListByClient(ctx, clientID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return paginate(rows, params)
}

func (s *service) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]ReservationDTO, string, error) {
	rows, err := s.repo.ListByMerchant(ctx, merchantID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return paginate(rows, params)
}

func paginate(rows []models.Reservation, params pagination.Params) ([]ReservationDTO, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	dtos := make([]ReservationDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nextCursor, nil
}

// authorizeTransition enforces who may drive which edge. Clients may only
// cancel their own reservations; merchants accept, reject, complete, or
// cancel reservations on their own offers.
func authorizeTransition(actor Actor, reservation *models.Reservation, target enums.ReservationStatus) error {
	if !actorOwns(actor, reservation) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "reservation belongs to another principal")
	}
	if actor.Role == enums.RoleClient && target != enums.ReservationStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeForbidden, "clients may only cancel reservations")
	}
	return nil
}

func actorOwns(actor Actor, reservation *models.Reservation) bool {
	switch actor.Role {
	case enums.RoleClient:
		return reservation.ClientID == actor.ID
	case enums.RoleMerchant:
		return reservation.MerchantID == actor.ID
	}
	return false
}

// transitionEvent maps a completed edge to the notification event it emits.
// Client-driven cancellations have no push today.
func transitionEvent(role enums.Role, from, to enums.ReservationStatus) (enums.NotificationEvent, bool) {
	switch {
	case to == enums.ReservationStatusConfirmed:
		return enums.EventReservationAccepted, true
	case to == enums.ReservationStatusCompleted:
		return enums.EventReservationCompleted, true
	case to == enums.ReservationStatusCancelled && role == enums.RoleMerchant && from == enums.ReservationStatusPending:
		return enums.EventReservationRejected, true
	}
	return "", false
}

func (s *service) countOutcome(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		if typed := pkgerrors.As(err); typed != nil {
			outcome = string(typed.Code())
		}
	}
	s.metrics.IncOutcome(operation, outcome)
}
