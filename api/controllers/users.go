package controllers

import (
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/auth"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func UserList(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}
		profiles, err := svc.ListProfiles(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profiles)
	}
}

// UserUpdate changes a user's role or activation flag.
func UserUpdate(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "userId")
		if !ok {
			return
		}
		var update auth.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &update); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.UpdateProfile(r.Context(), who, id, update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
