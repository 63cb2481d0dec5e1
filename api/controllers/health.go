package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sparebite/sparebite-backend/api/responses"
	"github.com/sparebite/sparebite-backend/pkg/config"
	"github.com/sparebite/sparebite-backend/pkg/db"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SpareBite-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each hard dependency and reports per-component status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		w.Header().Set("X-SpareBite-Env", cfg.App.Env)

		components := map[string]string{}
		healthy := true

		check := func(name string, ping func(context.Context) error) {
			if ping == nil {
				components[name] = "skipped"
				return
			}
			if err := ping(ctx); err != nil {
				components[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "component", name), "readiness check failed", err)
				}
				return
			}
			components[name] = "up"
		}

		if dbP != nil {
			check("database", dbP.Ping)
		} else {
			components["database"] = "skipped"
		}
		if redisP != nil {
			check("redis", redisP.Ping)
		} else {
			components["redis"] = "skipped"
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":     state,
			"components": components,
		})
	}
}
