package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/remote"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// ConnectionManager is the slice of remote.Manager the connection endpoints drive.
type ConnectionManager interface {
	Status() remote.Status
	Configure(ctx context.Context, settings remote.Settings) (remote.Status, error)
	Connect(ctx context.Context) error
}

type connectionRequest struct {
	URL       string `json:"url" validate:"required"`
	AccessKey string `json:"access_key"`
}

func ConnectionStatus(mgr ConnectionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			unavailable(w, r, logg, "connection")
			return
		}
		responses.WriteSuccess(w, mgr.Status())
	}
}

// ConnectionConfigure saves a new mirror endpoint and reconnects. A failed
// dial still saves the endpoint; the returned status carries the error.
func ConnectionConfigure(mgr ConnectionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			unavailable(w, r, logg, "connection")
			return
		}
		var req connectionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := mgr.Configure(r.Context(), remote.Settings{
			URL:       strings.TrimSpace(req.URL),
			AccessKey: strings.TrimSpace(req.AccessKey),
		})
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

func ConnectionReconnect(mgr ConnectionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			unavailable(w, r, logg, "connection")
			return
		}
		if err := mgr.Connect(r.Context()); err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mgr.Status())
	}
}
