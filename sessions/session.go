package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Role is the organisational role the API reports for the logged in user.
type Role string

const (
	RoleAdminGeneral Role = "admin_general" // Manages users across the organisation
	RoleAdmin        Role = "admin"         // Manages tasks and the employees assigned to them
	RoleEmployee     Role = "empleado"      // Works on tasks delegated to them
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdminGeneral, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

// Session is the credential and identity state held for the current user.
// The JSON names match the login response of the API, so a login reply
// decodes straight into a Session.
type Session struct {
	AccessToken  string `json:"access,omitempty"`   // Short-lived bearer credential
	RefreshToken string `json:"refresh,omitempty"`  // Exchanged at the refresh endpoint for a new access token
	Role         Role   `json:"role,omitempty"`     // Role reported at login
	Username     string `json:"username,omitempty"` // Display name reported at login
	Email        string `json:"email,omitempty"`    // Login email
}

// IsZero reports whether every field is absent, which is the state after Clear.
func (s Session) IsZero() bool {
	return s == Session{}
}

func (s Session) HasAccess() bool {
	return s.AccessToken != ""
}

// AccessExpiry reads the exp claim of the access token without verifying the
// signature. The API remains the authority on whether the token is valid.
func (s Session) AccessExpiry() (time.Time, bool) {
	if s.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// OAuth2Token converts the session into an oauth2 bearer token. Expiry is
// left zero (never expires) when the access token carries no exp claim.
func (s Session) OAuth2Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := s.AccessExpiry(); ok {
		t.Expiry = exp
	}
	return t
}
