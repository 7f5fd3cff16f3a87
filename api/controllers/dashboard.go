package controllers

import (
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/internal/dashboard"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func Dashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dashboard")
			return
		}
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
