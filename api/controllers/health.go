package controllers

import (
	"context"
	"net/http"

	"github.com/marsos-sa/marketplace-backend/api/responses"
	"github.com/marsos-sa/marketplace-backend/pkg/config"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
)

const envHeader = "X-Marsos-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every hard dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, db pinger, redis pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		deps := map[string]pinger{
			"database": db,
			"redis":    redis,
		}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
