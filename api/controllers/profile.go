package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/api/middleware"
	"github.com/sparebite/sparebite-backend/api/responses"
	"github.com/sparebite/sparebite-backend/api/validators"
	"github.com/sparebite/sparebite-backend/internal/identity"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

type updateProfileRequest struct {
	DisplayName *string   `json:"display_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Dietary     *[]string `json:"dietary,omitempty"`
}

type updateLocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

type updateMerchantRequest struct {
	CompanyName *string `json:"company_name,omitempty"`
	AddressLine *string `json:"address_line,omitempty"`
	District    *string `json:"district,omitempty"`
	City        *string `json:"city,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

func authUserID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.AuthUserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing")
	}
	return id, nil
}

// ProfileMe returns the consumer profile, creating it on first access.
func ProfileMe(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.EnsureProfile(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileRole reports which principal kind the account acts as.
func ProfileRole(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := svc.ResolveRole(r.Context(), id)
		responses.WriteSuccess(w, map[string]string{"role": role.String()})
	}
}

// ProfileUpdate applies partial consumer profile changes.
func ProfileUpdate(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), id, identity.UpdateProfileInput{
			DisplayName: body.DisplayName,
			AvatarURL:   body.AvatarURL,
			Dietary:     body.Dietary,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileUpdateLocation stores the consumer's coordinates for nearby queries.
func ProfileUpdateLocation(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateLocationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateLocation(r.Context(), id, body.Latitude, body.Longitude)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// SetPushToken registers or clears the device push token for either role.
// An empty token clears the registration.
func SetPushToken(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pushTokenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.Role(middleware.RoleFromContext(r.Context()))
		if err := svc.SetPushToken(r.Context(), id, role, body.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// MerchantMe returns the acting merchant's business record.
func MerchantMe(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchant, err := svc.GetMerchant(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, merchant)
	}
}

// MerchantUpdate applies partial merchant record changes.
func MerchantUpdate(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMerchantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchant, err := svc.UpdateMerchant(r.Context(), id, identity.UpdateMerchantInput{
			CompanyName: body.CompanyName,
			AddressLine: body.AddressLine,
			District:    body.District,
			City:        body.City,
			LogoURL:     body.LogoURL,
			Timezone:    body.Timezone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, merchant)
	}
}
