package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/api/middleware"
	"github.com/sparebite/sparebite-backend/api/responses"
	"github.com/sparebite/sparebite-backend/api/validators"
	"github.com/sparebite/sparebite-backend/internal/favorites"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

type addFavoriteRequest struct {
	MerchantID string `json:"merchant_id" validate:"required,uuid"`
}

func clientPrincipalID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.PrincipalIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "client context missing")
	}
	return id, nil
}

// FavoriteList returns the client's favorited merchants, newest first.
func FavoriteList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := clientPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// FavoriteAdd marks a merchant as a favorite. Adding the same merchant twice
// is a no-op.
func FavoriteAdd(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := clientPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addFavoriteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		merchantID, err := uuid.Parse(body.MerchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
			return
		}

		if err := svc.Add(r.Context(), clientID, merchantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "favorited"})
	}
}

// FavoriteRemove drops a merchant from the client's favorites.
func FavoriteRemove(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := clientPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID, err := uuid.Parse(chi.URLParam(r, "merchantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
			return
		}

		if err := svc.Remove(r.Context(), clientID, merchantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
