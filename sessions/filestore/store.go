package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/sessions"
)

// FileName is the name of the session file inside the data folder
const FileName = "session.json"

var _ sessions.Store = (*Store)(nil)

// Store persists the session as a JSON file so it survives restarts. The file
// is read once on Open; afterwards the in-memory copy is authoritative and
// every write goes through to disk.
type Store struct {
	mu      sync.RWMutex
	path    string
	session sessions.Session
}

// Open loads the session file in folder, creating the folder if needed. A
// missing file is an empty session.
func Open(folder string) (*Store, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore Open] create folder: %w", err)
	}

	s := &Store{path: filepath.Join(folder, FileName)}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[filestore Open] read %s: %w", s.path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.session); err != nil {
			return nil, fmt.Errorf("[filestore Open] decode %s: %w", s.path, err)
		}
	}
	return s, nil
}

// Path returns the location of the session file
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context) (sessions.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, nil
}

func (s *Store) Set(_ context.Context, session sessions.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(session)
}

func (s *Store) SetAccessToken(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.IsZero() {
		return apierrors.ErrNoSession
	}
	updated := s.session
	updated.AccessToken = accessToken
	return s.write(updated)
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[filestore Clear] remove %s: %w", s.path, err)
	}
	s.session = sessions.Session{}
	return nil
}

// write must be called with the lock held. The file is replaced by rename so
// a crash never leaves a half-written credential behind.
func (s *Store) write(session sessions.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[filestore write] encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*")
	if err != nil {
		return fmt.Errorf("[filestore write] create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore write] chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore write] write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[filestore write] close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("[filestore write] rename: %w", err)
	}

	s.session = session
	return nil
}
