package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/internal/remote"
	"github.com/angelmondragon/roastery-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

const envHeader = "X-Roastery-Env"

type Pinger interface {
	Ping(context.Context) error
}

// RemoteStatus reports the mirror state without failing readiness; the
// roastery keeps working offline.
type RemoteStatus interface {
	Status() remote.Status
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails only when the local store (or a configured Redis) is unreachable.
func HealthReady(cfg *config.Config, logg *logger.Logger, local Pinger, cache Pinger, mirror RemoteStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := local.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "local database unreachable"))
			return
		}
		checks := map[string]any{"local_db": "ok"}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
			checks["redis"] = "ok"
		}
		if mirror != nil {
			checks["remote"] = mirror.Status().State
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
