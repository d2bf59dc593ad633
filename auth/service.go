package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-task-client/apiclient"
	"github.com/jrsteele09/go-task-client/internal/config"
	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/users"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service logs users in and out and answers questions about the current
// session. It owns the lifecycle of the session the api client reads.
type Service struct {
	api       *apiclient.Client
	store     sessions.Store
	loginPath string
	logger    zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(api *apiclient.Client, cfg config.APIConfig, opts ...ServiceOption) *Service {
	s := &Service{
		api:       api,
		store:     api.Store(),
		loginPath: cfg.GetLoginPath(),
		logger:    log.Logger.With().Str("component", "auth").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login exchanges email and password for a session and stores it. A
// rejected login returns ErrInvalidCredentials carrying the API's message.
func (s *Service) Login(ctx context.Context, email, password string) (sessions.Session, error) {
	if !users.ValidEmail(email) {
		return sessions.Session{}, fmt.Errorf("[auth Login] %w: %q", apierrors.ErrInvalidEmail, email)
	}

	resp, err := s.api.Do(ctx, &apiclient.Request{
		Method: http.MethodPost,
		Path:   s.loginPath,
		Body:   credentials{Email: email, Password: password},
		NoAuth: true,
	})
	if err != nil {
		var httpErr *apierrors.HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusBadRequest || httpErr.IsAuthFailure()) {
			detail := httpErr.Detail()
			if detail == "" {
				detail = "email or password rejected"
			}
			return sessions.Session{}, fmt.Errorf("[auth Login] %w: %s", apierrors.ErrInvalidCredentials, detail)
		}
		return sessions.Session{}, fmt.Errorf("[auth Login] %w", err)
	}

	var session sessions.Session
	if err := resp.Decode(&session); err != nil {
		return sessions.Session{}, fmt.Errorf("[auth Login] %w", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		return sessions.Session{}, fmt.Errorf("[auth Login] login response is missing tokens")
	}
	if session.Email == "" {
		session.Email = email
	}
	if session.Role != "" && !session.Role.Valid() {
		s.logger.Warn().Str("role", string(session.Role)).Msg("Login returned an unknown role")
	}

	if err := s.store.Set(ctx, session); err != nil {
		return sessions.Session{}, fmt.Errorf("[auth Login] store session: %w", err)
	}
	s.logger.Info().Str("username", session.Username).Str("role", string(session.Role)).Msg("Logged in")
	return session, nil
}

// Logout clears every stored session field
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("[auth Logout] %w", err)
	}
	return nil
}

func (s *Service) CurrentSession(ctx context.Context) (sessions.Session, error) {
	session, err := s.store.Get(ctx)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[auth CurrentSession] %w", err)
	}
	return session, nil
}

// IsAuthenticated reports whether an access token is stored. It does not
// ask the API whether the token is still accepted.
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	session, err := s.CurrentSession(ctx)
	if err != nil {
		return false, err
	}
	return session.HasAccess(), nil
}

// HasRole returns ErrNoSession when logged out and ErrForbidden when the
// session's role is not one of allowed. An empty allowed list admits any role.
func (s *Service) HasRole(ctx context.Context, allowed ...sessions.Role) (sessions.Session, error) {
	session, err := s.CurrentSession(ctx)
	if err != nil {
		return sessions.Session{}, err
	}
	if !session.HasAccess() {
		return sessions.Session{}, apierrors.ErrNoSession
	}
	if len(allowed) > 0 && !slices.Contains(allowed, session.Role) {
		return session, fmt.Errorf("%w: %q", apierrors.ErrForbidden, session.Role)
	}
	return session, nil
}
