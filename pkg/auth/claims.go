package auth

import (
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the profile data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Email  string
	Role   enums.UserRole
	Active bool
}

// AccessTokenClaims represents the typed JWT issued to clients. Role and
// Active are a snapshot; the authorization middleware re-reads the profile.
type AccessTokenClaims struct {
	UserID string         `json:"user_id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	Active bool           `json:"active"`
	jwt.RegisteredClaims
}
