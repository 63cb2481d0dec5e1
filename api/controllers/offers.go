package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/api/responses"
	"github.com/sparebite/sparebite-backend/api/validators"
	"github.com/sparebite/sparebite-backend/internal/discovery"
	"github.com/sparebite/sparebite-backend/internal/identity"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/geo"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

func viewerPoint(r *http.Request) (*geo.Point, error) {
	lat, hasLat, err := validators.ParseQueryFloat(r, "lat")
	if err != nil {
		return nil, err
	}
	lng, hasLng, err := validators.ParseQueryFloat(r, "lng")
	if err != nil {
		return nil, err
	}
	if !hasLat && !hasLng {
		return nil, nil
	}
	if hasLat != hasLng {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}
	return &geo.Point{Latitude: lat, Longitude: lng}, nil
}

func storedLocation(r *http.Request, svc identity.Service) (*geo.Point, error) {
	id, err := authUserID(r)
	if err != nil {
		return nil, err
	}
	profile, err := svc.EnsureProfile(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !profile.HasLocation || profile.Latitude == nil || profile.Longitude == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no location on record, pass lat and lng")
	}
	return &geo.Point{Latitude: *profile.Latitude, Longitude: *profile.Longitude}, nil
}

// OffersNearby returns active offers around the caller, closest first. The
// point comes from lat/lng query parameters, falling back to the client's
// stored location.
func OffersNearby(svc discovery.Service, identitySvc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		point, err := viewerPoint(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if point == nil {
			point, err = storedLocation(r, identitySvc)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		radius, _, err := validators.ParseQueryFloat(r, "radius_m")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offers, err := svc.Nearby(r.Context(), *point, radius)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": offers})
	}
}

// OffersActive is the location-less fallback feed.
func OffersActive(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offers, err := svc.Active(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": offers})
	}
}

// OffersByMerchant lists one merchant's offers for its public storefront.
func OffersByMerchant(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := uuid.Parse(chi.URLParam(r, "merchantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
			return
		}

		offers, err := svc.ByMerchant(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": offers})
	}
}

// OfferDetail returns one offer with merchant context and, when the caller
// supplies coordinates, the distance to it.
func OfferDetail(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := uuid.Parse(chi.URLParam(r, "offerId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer id"))
			return
		}

		point, err := viewerPoint(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.GetByID(r.Context(), offerID, point)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}
