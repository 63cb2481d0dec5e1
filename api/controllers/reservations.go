package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/api/middleware"
	"github.com/sparebite/sparebite-backend/api/responses"
	"github.com/sparebite/sparebite-backend/api/validators"
	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

type createReservationRequest struct {
	OfferID  string `json:"offer_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// reservationActions maps URL action names onto state machine targets. The
// service still checks role and edge validity; this only translates the verb.
var reservationActions = map[string]enums.ReservationStatus{
	"cancel":   enums.ReservationStatusCancelled,
	"accept":   enums.ReservationStatusConfirmed,
	"reject":   enums.ReservationStatusCancelled,
	"complete": enums.ReservationStatusCompleted,
}

func reservationActor(r *http.Request) (reservations.Actor, error) {
	id, err := uuid.Parse(middleware.PrincipalIDFromContext(r.Context()))
	if err != nil {
		return reservations.Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "principal context missing")
	}
	return reservations.Actor{
		ID:   id,
		Role: enums.Role(middleware.RoleFromContext(r.Context())),
	}, nil
}

func reservationIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "reservationId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reservation id")
	}
	return id, nil
}

// ReservationCreate places a hold on offer quantity for the acting client.
func ReservationCreate(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reservationActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createReservationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID, err := uuid.Parse(body.OfferID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer id"))
			return
		}

		reservation, err := svc.Create(r.Context(), actor.ID, offerID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reservation)
	}
}

// ReservationList returns the acting principal's reservations, newest first.
// Clients see their own holds, merchants see holds against their offers.
func ReservationList(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reservationActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			items  []reservations.ReservationDTO
			cursor string
		)
		switch actor.Role {
		case enums.RoleClient:
			items, cursor, err = svc.ListForClient(r.Context(), actor.ID, params)
		case enums.RoleMerchant:
			items, cursor, err = svc.ListForMerchant(r.Context(), actor.ID, params)
		default:
			err = pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list reservations")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}

// ReservationDetail returns one reservation the actor participates in.
func ReservationDetail(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reservationActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reservationID, err := reservationIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservation, err := svc.GetByID(r.Context(), actor, reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

// ReservationAction drives one edge of the reservation state machine.
// Mounted at POST /{reservationId}/{action} for cancel, accept, reject
// and complete.
func ReservationAction(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reservationActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reservationID, err := reservationIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, ok := reservationActions[chi.URLParam(r, "action")]
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown reservation action"))
			return
		}

		reservation, err := svc.Transition(r.Context(), actor, reservationID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}
