package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	"github.com/angelmondragon/storefront-catalog/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

const (
	envHeader    = "X-Storefront-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency. Nil entries are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				healthy = false
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
