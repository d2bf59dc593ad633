package sessions

import (
	"context"
)

// Store holds the single session of this client process. Implementations
// must make every write atomic with respect to concurrent reads, so a reader
// sees either the old or the new credential and never a mix.
type Store interface {
	// Get returns the current session, or a zero Session when logged out
	Get(ctx context.Context) (Session, error)

	// Set replaces the whole session
	Set(ctx context.Context, session Session) error

	// SetAccessToken replaces only the access token. It returns
	// errors.ErrNoSession when the session was cleared in the meantime, so a
	// late refresh cannot resurrect a logged out session.
	SetAccessToken(ctx context.Context, accessToken string) error

	// Clear removes every field of the session
	Clear(ctx context.Context) error
}
