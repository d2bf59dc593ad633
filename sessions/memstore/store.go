package memstore

import (
	"context"
	"sync"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/sessions"
)

var _ sessions.Store = (*Store)(nil)

// Store is an in-memory session store. It does not survive a restart.
type Store struct {
	mu      sync.RWMutex
	session sessions.Session
}

func New() *Store {
	return &Store{}
}

// NewWithSession creates a store already holding session
func NewWithSession(session sessions.Session) *Store {
	return &Store{session: session}
}

func (s *Store) Get(_ context.Context) (sessions.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, nil
}

func (s *Store) Set(_ context.Context, session sessions.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	return nil
}

func (s *Store) SetAccessToken(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.IsZero() {
		return apierrors.ErrNoSession
	}
	s.session.AccessToken = accessToken
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sessions.Session{}
	return nil
}
