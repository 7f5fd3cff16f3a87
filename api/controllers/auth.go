package controllers

import (
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/middleware"
	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/auth"
	"github.com/angelmondragon/roastery-backend/internal/authz"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// AuthSignIn exchanges credentials for an access token.
func AuthSignIn(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}
		var req auth.Credentials
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.SignIn(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// AuthSignUp creates an identity with an inactive viewer profile.
func AuthSignUp(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}
		var req auth.Credentials
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.SignUp(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, profile)
	}
}

type meResponse struct {
	Subject string `json:"subject"`
	Profile any    `json:"profile,omitempty"`
}

// AuthMe describes the current caller: a profile for users, or the local operator.
func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := middleware.SubjectFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "subject missing"))
			return
		}
		if subject.Kind == authz.SubjectLocal {
			responses.WriteSuccess(w, meResponse{Subject: string(authz.SubjectLocal)})
			return
		}
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}
		profile, err := svc.Me(r.Context(), subject.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, meResponse{Subject: string(authz.SubjectUser), Profile: profile})
	}
}
