package controllers

import (
	"context"
	"net/http"

	"github.com/rmoralesp/giftshop-backend/api/responses"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadyDeps names the dependencies probed by the readiness check. Nil entries
// are skipped so partial deployments still report.
type ReadyDeps struct {
	DB     pinger
	Redis  pinger
	Bucket pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GiftShop-Env", cfg.App.Env)
		responses.WriteSuccess(w, "live", map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, deps ReadyDeps, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GiftShop-Env", cfg.App.Env)

		checks := map[string]pinger{
			"db":     deps.DB,
			"redis":  deps.Redis,
			"bucket": deps.Bucket,
		}
		status := map[string]string{}
		healthy := true
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(status))
			return
		}
		responses.WriteSuccess(w, "ready", status)
	}
}
