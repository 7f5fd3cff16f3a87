package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/internal/authz"
	pkgAuth "github.com/angelmondragon/roastery-backend/pkg/auth"
	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// ProfileReader loads the current profile so role changes apply without a new token.
type ProfileReader interface {
	Me(ctx context.Context, userID string) (*models.UserProfile, error)
}

// AuthOptions configures subject resolution.
type AuthOptions struct {
	JWT config.JWTConfig
	// LocalMode treats requests without credentials as the local operator.
	LocalMode bool
	Profiles  ProfileReader
}

// Auth resolves the caller from a bearer token, falling back to the local
// operator when local mode is on, and seeds the request context with it.
func Auth(opts AuthOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if !opts.LocalMode {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				ctx := WithSubject(r.Context(), authz.Local())
				if logg != nil {
					ctx = logg.WithSubject(ctx, string(authz.SubjectLocal))
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(opts.JWT, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			subject := authz.User(claims.UserID, claims.Role, claims.Active)
			if opts.Profiles != nil {
				profile, err := opts.Profiles.Me(r.Context(), claims.UserID)
				switch {
				case err == nil:
					subject = authz.User(profile.ID, profile.Role, profile.IsActive)
				case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile unavailable"))
					return
				default:
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile"))
					return
				}
			}

			ctx := WithSubject(r.Context(), subject)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id": subject.UserID,
					"role":    string(subject.Role),
				})
				ctx = logg.WithSubject(ctx, string(authz.SubjectUser))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		// EventSource cannot set headers, so live streams pass the token as a query parameter.
		raw = strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return raw
}
