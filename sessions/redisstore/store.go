package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/sessions"
)

const (
	fieldAccess   = "access"
	fieldRefresh  = "refresh"
	fieldRole     = "role"
	fieldUsername = "username"
	fieldEmail    = "email"
)

// setAccessScript updates the access field only while the hash exists, so a
// refresh finishing after a logout does not recreate the session.
var setAccessScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

var _ sessions.Store = (*Store)(nil)

// Store keeps the session in a single Redis hash, letting several client
// processes share one login.
type Store struct {
	client redis.UniversalClient
	key    string
}

func New(client redis.UniversalClient, key string) *Store {
	return &Store{client: client, key: key}
}

func (s *Store) Get(ctx context.Context) (sessions.Session, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[redisstore Get] %w", err)
	}
	return sessions.Session{
		AccessToken:  values[fieldAccess],
		RefreshToken: values[fieldRefresh],
		Role:         sessions.Role(values[fieldRole]),
		Username:     values[fieldUsername],
		Email:        values[fieldEmail],
	}, nil
}

func (s *Store) Set(ctx context.Context, session sessions.Session) error {
	if session.IsZero() {
		return s.Clear(ctx)
	}

	fields := map[string]any{}
	add := func(name, value string) {
		if value != "" {
			fields[name] = value
		}
	}
	add(fieldAccess, session.AccessToken)
	add(fieldRefresh, session.RefreshToken)
	add(fieldRole, string(session.Role))
	add(fieldUsername, session.Username)
	add(fieldEmail, session.Email)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, fields)
		return nil
	})
	if err != nil {
		return fmt.Errorf("[redisstore Set] %w", err)
	}
	return nil
}

func (s *Store) SetAccessToken(ctx context.Context, accessToken string) error {
	updated, err := setAccessScript.Run(ctx, s.client, []string{s.key}, fieldAccess, accessToken).Int()
	if err != nil {
		return fmt.Errorf("[redisstore SetAccessToken] %w", err)
	}
	if updated == 0 {
		return apierrors.ErrNoSession
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("[redisstore Clear] %w", err)
	}
	return nil
}
