package sessions_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-task-client/sessions"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("unknown-to-the-client"))
	require.NoError(t, err)
	return s
}

func TestAccessExpiry(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	s := sessions.Session{AccessToken: signedToken(t, exp)}

	got, ok := s.AccessExpiry()
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = sessions.Session{AccessToken: "opaque"}.AccessExpiry()
	require.False(t, ok)

	_, ok = sessions.Session{}.AccessExpiry()
	require.False(t, ok)
}

func TestOAuth2Token(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := sessions.Session{AccessToken: signedToken(t, exp), RefreshToken: "r"}

	tok := s.OAuth2Token()
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, "r", tok.RefreshToken)
	require.True(t, exp.Equal(tok.Expiry))
	require.True(t, tok.Valid())

	opaque := sessions.Session{AccessToken: "opaque"}.OAuth2Token()
	require.True(t, opaque.Expiry.IsZero())
	require.True(t, opaque.Valid())
}

func TestSessionDecodesLoginResponse(t *testing.T) {
	body := `{"access":"a","refresh":"r","role":"empleado","username":"bob","email":"bob@example.com"}`

	var s sessions.Session
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	require.Equal(t, sessions.Session{
		AccessToken:  "a",
		RefreshToken: "r",
		Role:         sessions.RoleEmployee,
		Username:     "bob",
		Email:        "bob@example.com",
	}, s)
	require.True(t, s.Role.Valid())
	require.False(t, sessions.Role("root").Valid())
	require.False(t, s.IsZero())
	require.True(t, sessions.Session{}.IsZero())
}
