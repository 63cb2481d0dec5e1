package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sparebite/sparebite-backend/api/routes"
	"github.com/sparebite/sparebite-backend/internal/catalog"
	"github.com/sparebite/sparebite-backend/internal/discovery"
	"github.com/sparebite/sparebite-backend/internal/favorites"
	"github.com/sparebite/sparebite-backend/internal/identity"
	"github.com/sparebite/sparebite-backend/internal/notifier"
	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/auth/session"
	"github.com/sparebite/sparebite-backend/pkg/config"
	"github.com/sparebite/sparebite-backend/pkg/db"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/metrics"
	"github.com/sparebite/sparebite-backend/pkg/migrate"
	"github.com/sparebite/sparebite-backend/pkg/pubsub"
	"github.com/sparebite/sparebite-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	// Pub/Sub is optional for the API process. Without it reservation
	// events are simply not published.
	var publisher reservations.EventPublisher
	if strings.TrimSpace(cfg.GCP.ProjectID) != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		publisher = reservations.NewPubSubPublisher(pubsubClient.ReservationPublisher())
	} else {
		logg.Warn(context.Background(), "gcp project not configured, reservation events disabled")
	}

	identityRepo := identity.NewRepository(dbClient.DB())
	identityService, err := identity.NewService(identityRepo, sessionManager, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	favoritesService, err := favorites.NewService(favorites.NewRepository(dbClient.DB()), identityRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), identityRepo, favoritesService, publisher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	discoveryService, err := discovery.NewService(discovery.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create discovery service", err)
		os.Exit(1)
	}

	reservationMetrics := metrics.NewReservationMetrics(prometheus.DefaultRegisterer)
	reservationsService, err := reservations.NewService(
		dbClient,
		reservations.NewRepository(dbClient.DB()),
		publisher,
		logg,
		reservationMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservations service", err)
		os.Exit(1)
	}

	// The API serves the notification inbox only; pushes are sent by the
	// notify worker, so no sender is wired here.
	notifierService, err := notifier.NewService(notifier.NewRepository(dbClient.DB()), nil, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			identityService,
			catalogService,
			discoveryService,
			reservationsService,
			notifierService,
			favoritesService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
