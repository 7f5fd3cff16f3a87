package auth

import (
	"time"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

// Credentials is the body of both sign-in and sign-up.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	AccessToken string              `json:"access_token"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Profile     *models.UserProfile `json:"profile"`
}

// ProfileUpdate changes a user's role or activation; nil leaves it alone.
type ProfileUpdate struct {
	Role     *enums.UserRole `json:"role"`
	IsActive *bool           `json:"is_active"`
}
