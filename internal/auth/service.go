// Package auth signs users in against the remote identity table and manages
// their local profiles.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/roastery-backend/internal/repo"
	"github.com/angelmondragon/roastery-backend/internal/store"
	pkgAuth "github.com/angelmondragon/roastery-backend/pkg/auth"
	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	profilesCollection        = "user_profiles"
)

// Service defines the behavior needed by the auth and users controllers.
type Service interface {
	SignIn(ctx context.Context, req Credentials) (*SessionResponse, error)
	SignUp(ctx context.Context, req Credentials) (*models.UserProfile, error)
	Me(ctx context.Context, userID string) (*models.UserProfile, error)
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)
	UpdateProfile(ctx context.Context, actor, id string, update ProfileUpdate) (*models.UserProfile, error)
}

// RemoteSource hands out the live mirror connection, if any.
type RemoteSource interface {
	Current() (*db.Client, bool)
}

// Pusher sends freshly written rows to the mirror without waiting for the outbox.
type Pusher interface {
	Push(ctx context.Context, collection string, ids ...string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Remote         RemoteSource
	Writer         *store.Writer
	Pusher         Pusher
	Logger         *logger.Logger
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

type service struct {
	remote  RemoteSource
	writer  *store.Writer
	pusher  Pusher
	logg    *logger.Logger
	jwtCfg  config.JWTConfig
	pwdCfg  config.PasswordConfig
	nowFunc func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Remote == nil {
		return nil, fmt.Errorf("remote source is required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("store writer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		remote:  params.Remote,
		writer:  params.Writer,
		pusher:  params.Pusher,
		logg:    params.Logger,
		jwtCfg:  params.JWTConfig,
		pwdCfg:  params.PasswordConfig,
		nowFunc: now,
	}, nil
}

func (s *service) identities() (identityRepository, error) {
	client, ok := s.remote.Current()
	if !ok {
		return identityRepository{}, pkgerrors.New(pkgerrors.CodeDependency, "remote connection is not configured")
	}
	return identityRepository{db: client.DB()}, nil
}

func (s *service) SignIn(ctx context.Context, req Credentials) (*SessionResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	ids, err := s.identities()
	if err != nil {
		return nil, err
	}
	identity, err := ids.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup identity")
	}
	valid, err := security.VerifyPassword(req.Password, identity.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	profile, err := s.resolveProfile(ctx, ids, identity)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc()
	if err := ids.UpdateLastLogin(ctx, identity.ID, now); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "record last login failed")
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		Active: profile.IsActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &SessionResponse{AccessToken: token, ExpiresAt: now.Add(s.jwtCfg.TTL()), Profile: profile}, nil
}

// resolveProfile prefers the local row, falls back to the mirror's copy and
// finally creates an inactive viewer profile.
func (s *service) resolveProfile(ctx context.Context, ids identityRepository, identity *models.Identity) (*models.UserProfile, error) {
	profile, err := repo.Get[models.UserProfile](s.writer.DB(ctx), identity.ID, "profile")
	if err == nil {
		return profile, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	mirrored, err := ids.FindProfile(ctx, identity.ID)
	switch {
	case err == nil:
		profile = mirrored
	case db.IsNotFound(err):
		profile = &models.UserProfile{ID: identity.ID, Email: identity.Email, Role: enums.UserRoleViewer}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup remote profile")
	}
	if err := s.writer.Run(ctx, identity.ID, func(tx *store.Tx) error { return tx.Put(profile) }); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *service) SignUp(ctx context.Context, req Credentials) (*models.UserProfile, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	ids, err := s.identities()
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(req.Password, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	identity := &models.Identity{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: s.nowFunc()}
	if err := ids.Create(ctx, identity); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create identity")
	}

	profile := &models.UserProfile{ID: identity.ID, Email: email, Role: enums.UserRoleViewer, IsActive: false}
	if err := s.writer.Run(ctx, identity.ID, func(tx *store.Tx) error { return tx.Put(profile) }); err != nil {
		return nil, err
	}
	s.push(ctx, profile.ID)
	return profile, nil
}

func (s *service) Me(ctx context.Context, userID string) (*models.UserProfile, error) {
	return repo.Get[models.UserProfile](s.writer.DB(ctx), userID, "profile")
}

func (s *service) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	return repo.List[models.UserProfile](s.writer.DB(ctx), nil, "email")
}

func (s *service) UpdateProfile(ctx context.Context, actor, id string, update ProfileUpdate) (*models.UserProfile, error) {
	if update.Role != nil && !update.Role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *update.Role)
	}
	var profile *models.UserProfile
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		if profile, err = repo.Get[models.UserProfile](tx.DB, id, "profile"); err != nil {
			return err
		}
		if update.Role != nil {
			profile.Role = *update.Role
		}
		if update.IsActive != nil {
			profile.IsActive = *update.IsActive
		}
		return tx.Put(profile)
	})
	if err != nil {
		return nil, err
	}
	s.push(ctx, profile.ID)
	return profile, nil
}

// push is best effort; the outbox retries whatever fails here.
func (s *service) push(ctx context.Context, id string) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(ctx, profilesCollection, id); err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithCollection(ctx, profilesCollection), "error", err.Error()), "profile push failed")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
