package fakeapi

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const contextKeyAccount contextKey = "account"

func (s *Server) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// requireAuth validates the Bearer access token and puts the caller's
// account into the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			writeDetail(w, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}
		if s.rejectAccess.Load() {
			writeTokenInvalid(w)
			return
		}

		s.mu.Lock()
		a, err := s.authenticate(parts[1])
		s.mu.Unlock()
		if err != nil {
			writeTokenInvalid(w)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyAccount, a)
		next(w, r.WithContext(ctx))
	}
}

func caller(r *http.Request) *account {
	a, _ := r.Context().Value(contextKeyAccount).(*account)
	return a
}
