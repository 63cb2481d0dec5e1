package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sparebite/sparebite-backend/api/controllers"
	"github.com/sparebite/sparebite-backend/api/middleware"
	"github.com/sparebite/sparebite-backend/internal/catalog"
	"github.com/sparebite/sparebite-backend/internal/discovery"
	"github.com/sparebite/sparebite-backend/internal/favorites"
	"github.com/sparebite/sparebite-backend/internal/identity"
	"github.com/sparebite/sparebite-backend/internal/notifier"
	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/auth/session"
	"github.com/sparebite/sparebite-backend/pkg/config"
	"github.com/sparebite/sparebite-backend/pkg/db"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions sessionManager,
	identityService identity.Service,
	catalogService catalog.Service,
	discoveryService discovery.Service,
	reservationsService reservations.Service,
	notifierService notifier.Service,
	favoritesService favorites.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(identityService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(identityService, logg))
		r.Post("/logout", controllers.AuthLogout(identityService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		// Profile routes resolve the principal themselves so a brand-new
		// account can hit them before any principal row exists.
		r.Route("/profile", func(r chi.Router) {
			r.Get("/me", controllers.ProfileMe(identityService, logg))
			r.Get("/role", controllers.ProfileRole(identityService, logg))
			r.Patch("/me", controllers.ProfileUpdate(identityService, logg))
			r.Put("/me/location", controllers.ProfileUpdateLocation(identityService, logg))
			r.Put("/me/preferences", controllers.ProfileUpdate(identityService, logg))
			r.Post("/me/push-token", controllers.SetPushToken(identityService, logg))
		})

		r.Route("/merchants", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleMerchant.String(), logg))
			r.Get("/me", controllers.MerchantMe(identityService, logg))
			r.Patch("/me", controllers.MerchantUpdate(identityService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Principal(identityService, logg))

			r.Route("/offers", func(r chi.Router) {
				r.Get("/nearby", controllers.OffersNearby(discoveryService, identityService, logg))
				r.Get("/", controllers.OffersActive(discoveryService, logg))
				r.Get("/merchant/{merchantId}", controllers.OffersByMerchant(discoveryService, logg))
				r.Get("/{offerId}", controllers.OfferDetail(discoveryService, logg))
			})

			r.Route("/merchant/offers", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleMerchant.String(), logg))
				r.Post("/", controllers.MerchantOfferCreate(catalogService, logg))
				r.Get("/", controllers.MerchantOfferList(catalogService, logg))
				r.Patch("/{offerId}", controllers.MerchantOfferUpdate(catalogService, logg))
				r.Put("/{offerId}/active", controllers.MerchantOfferSetActive(catalogService, logg))
				r.Delete("/{offerId}", controllers.MerchantOfferDelete(catalogService, logg))
			})

			r.Route("/reservations", func(r chi.Router) {
				r.With(middleware.RequireRole(enums.RoleClient.String(), logg)).Post("/", controllers.ReservationCreate(reservationsService, logg))
				r.Get("/", controllers.ReservationList(reservationsService, logg))
				r.Get("/{reservationId}", controllers.ReservationDetail(reservationsService, logg))
				r.Post("/{reservationId}/{action}", controllers.ReservationAction(reservationsService, logg))
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleClient.String(), logg))
				r.Get("/", controllers.FavoriteList(favoritesService, logg))
				r.Post("/", controllers.FavoriteAdd(favoritesService, logg))
				r.Delete("/{merchantId}", controllers.FavoriteRemove(favoritesService, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationList(notifierService, logg))
				r.Post("/{notificationId}/read", controllers.NotificationMarkRead(notifierService, logg))
				r.Post("/read-all", controllers.NotificationMarkAllRead(notifierService, logg))
			})
		})
	})

	return r
}
