package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-task-client/sessions"
)

const refreshTokenLength = 32

type accessClaims struct {
	Role sessions.Role `json:"role"`
	jwt.RegisteredClaims
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// issueAccess signs a new access token for the user and records it as live.
// Callers hold s.mu.
func (s *Server) issueAccess(a *account) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role: a.user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(a.user.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	s.access[signed] = a.user.ID
	return signed, nil
}

// issueRefresh creates a random refresh token. Callers hold s.mu.
func (s *Server) issueRefresh(a *account) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)
	s.refresh[token] = a.user.ID
	return token, nil
}

// authenticate verifies signature and expiry of an access token and that it
// has not been revoked. Callers hold s.mu.
func (s *Server) authenticate(token string) (*account, error) {
	claims := accessClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	id, ok := s.access[token]
	if !ok {
		return nil, fmt.Errorf("token revoked")
	}
	a, ok := s.users[id]
	if !ok || !a.user.IsActive {
		return nil, fmt.Errorf("user inactive")
	}
	return a, nil
}

// AccessTokenFor issues a live access token without going through login.
func (s *Server) AccessTokenFor(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.issueAccess(s.users[userID])
	if err != nil {
		panic(err)
	}
	return token
}

// RefreshTokenFor issues a refresh token without going through login.
func (s *Server) RefreshTokenFor(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.issueRefresh(s.users[userID])
	if err != nil {
		panic(err)
	}
	return token
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Refresh  string        `json:"refresh"`
	Access   string        `json:"access"`
	Role     sessions.Role `json:"role"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accountByEmail(req.Email)
	if a == nil || !a.user.IsActive || !checkPasswordHash(req.Password, a.passwordHash) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Credenciales inválidas"},
		})
		return
	}

	access, err := s.issueAccess(a)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	refresh, err := s.issueRefresh(a)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Refresh:  refresh,
		Access:   access,
		Role:     a.user.Role,
		Username: a.user.Username,
		Email:    a.user.Email,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	if d := time.Duration(s.refreshDelay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}

	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if s.failRefresh.Load() {
		writeTokenInvalid(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.refresh[req.Refresh]
	if !ok {
		writeTokenInvalid(w)
		return
	}
	access, err := s.issueAccess(s.users[id])
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func writeTokenInvalid(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"detail": "Token is invalid or expired",
		"code":   "token_not_valid",
	})
}
