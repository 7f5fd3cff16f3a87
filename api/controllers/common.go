package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/roastery-backend/api/middleware"
	"github.com/angelmondragon/roastery-backend/api/responses"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// actor returns the caller's audit id, writing a 401 when no subject was resolved.
func actor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	id := middleware.ActorFromContext(r.Context())
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "subject missing"))
		return "", false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, param string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, param))
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", param))
		return "", false
	}
	return id, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeInternal, "%s service unavailable", name))
}
