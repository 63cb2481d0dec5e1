package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/api/middleware"
	"github.com/sparebite/sparebite-backend/api/responses"
	"github.com/sparebite/sparebite-backend/api/validators"
	"github.com/sparebite/sparebite-backend/internal/catalog"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/pagination"
)

type createOfferRequest struct {
	Title           string     `json:"title" validate:"required"`
	Description     *string    `json:"description,omitempty"`
	OriginalPrice   int64      `json:"original_price_cents" validate:"min=0"`
	DiscountedPrice int64      `json:"discounted_price_cents" validate:"min=0"`
	Quantity        int        `json:"quantity" validate:"required,min=1"`
	PickupStart     time.Time  `json:"pickup_start" validate:"required"`
	PickupEnd       time.Time  `json:"pickup_end" validate:"required"`
	ImageURL        *string    `json:"image_url,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type updateOfferRequest struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	OriginalPrice   *int64     `json:"original_price_cents,omitempty"`
	DiscountedPrice *int64     `json:"discounted_price_cents,omitempty"`
	QuantityDelta   *int       `json:"quantity_delta,omitempty"`
	PickupStart     *time.Time `json:"pickup_start,omitempty"`
	PickupEnd       *time.Time `json:"pickup_end,omitempty"`
	ImageURL        *string    `json:"image_url,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func merchantPrincipalID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.PrincipalIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "merchant context missing")
	}
	return id, nil
}

func offerIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "offerId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer id")
	}
	return id, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// MerchantOfferCreate publishes a new offer owned by the acting merchant.
func MerchantOfferCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := merchantPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), merchantID, catalog.CreateOfferInput{
			Title:           body.Title,
			Description:     body.Description,
			OriginalPrice:   body.OriginalPrice,
			DiscountedPrice: body.DiscountedPrice,
			Quantity:        body.Quantity,
			PickupStart:     body.PickupStart,
			PickupEnd:       body.PickupEnd,
			ImageURL:        body.ImageURL,
			ExpiresAt:       body.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

// MerchantOfferUpdate applies partial changes to an owned offer.
func MerchantOfferUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := merchantPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := offerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Update(r.Context(), merchantID, offerID, catalog.UpdateOfferInput{
			Title:           body.Title,
			Description:     body.Description,
			OriginalPrice:   body.OriginalPrice,
			DiscountedPrice: body.DiscountedPrice,
			QuantityDelta:   body.QuantityDelta,
			PickupStart:     body.PickupStart,
			PickupEnd:       body.PickupEnd,
			ImageURL:        body.ImageURL,
			ExpiresAt:       body.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// MerchantOfferSetActive toggles offer visibility without deleting history.
func MerchantOfferSetActive(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := merchantPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := offerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.SetActive(r.Context(), merchantID, offerID, body.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// MerchantOfferDelete removes an offer that has no reservation history.
func MerchantOfferDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := merchantPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := offerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), merchantID, offerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// MerchantOfferList returns the acting merchant's offers, inactive included.
func MerchantOfferList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := merchantPrincipalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offers, cursor, err := svc.ListOwn(r.Context(), merchantID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": offers, "cursor": cursor})
	}
}
