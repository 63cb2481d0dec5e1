package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/api/responses"
	"github.com/sparebite/sparebite-backend/internal/identity"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

type principalResolver interface {
	EnsureProfile(ctx context.Context, authUserID uuid.UUID) (*identity.ProfileDTO, error)
	GetMerchant(ctx context.Context, authUserID uuid.UUID) (*identity.MerchantDTO, error)
}

// Principal resolves the authenticated auth user to its domain principal and
// injects the principal id: the profile id for clients, the merchant id for
// merchants. Client profiles are created on first sight so a fresh login can
// reserve immediately.
func Principal(svc principalResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authUserID, err := uuid.Parse(AuthUserIDFromContext(r.Context()))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
				return
			}

			var principalID uuid.UUID
			switch enums.Role(RoleFromContext(r.Context())) {
			case enums.RoleClient:
				profile, err := svc.EnsureProfile(r.Context(), authUserID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				principalID = profile.ID
			case enums.RoleMerchant:
				merchant, err := svc.GetMerchant(r.Context(), authUserID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				principalID = merchant.ID
			default:
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot act on this surface"))
				return
			}

			ctx := WithPrincipalID(r.Context(), principalID.String())
			if logg != nil {
				ctx = logg.WithPrincipalID(ctx, principalID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
