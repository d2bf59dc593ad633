// Package storetest holds the behaviour every sessions.Store must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/sessions"
)

// Sample is a fully populated session used by the suite
var Sample = sessions.Session{
	AccessToken:  "access-1",
	RefreshToken: "refresh-1",
	Role:         sessions.RoleAdmin,
	Username:     "alice",
	Email:        "alice@example.com",
}

// Run exercises store against the Store contract. newStore must return an
// empty store.
func Run(t *testing.T, newStore func(t *testing.T) sessions.Store) {
	t.Run("EmptyStoreReturnsZeroSession", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Get(context.Background())
		require.NoError(t, err)
		require.True(t, got.IsZero())
	})

	t.Run("SetThenGetRoundTrips", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		long := Sample
		long.AccessToken = "eyJhbGciOiJIUzI1NiJ9.payload-with-=/+-chars.signature"

		require.NoError(t, s.Set(ctx, long))
		got, err := s.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, long, got)
	})

	t.Run("SetAccessTokenReplacesOnlyAccess", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, Sample))

		require.NoError(t, s.SetAccessToken(ctx, "access-2"))
		got, err := s.Get(ctx)
		require.NoError(t, err)

		want := Sample
		want.AccessToken = "access-2"
		require.Equal(t, want, got)
	})

	t.Run("SetAccessTokenWithoutSessionFails", func(t *testing.T) {
		s := newStore(t)
		err := s.SetAccessToken(context.Background(), "access-2")
		require.ErrorIs(t, err, apierrors.ErrNoSession)

		got, err := s.Get(context.Background())
		require.NoError(t, err)
		require.True(t, got.IsZero())
	})

	t.Run("ClearRemovesEveryField", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, Sample))
		require.NoError(t, s.Clear(ctx))

		got, err := s.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, sessions.Session{}, got)

		// Clearing twice is fine
		require.NoError(t, s.Clear(ctx))
	})

	t.Run("ConcurrentReadsNeverSeeTornSessions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, Sample))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					assert.NoError(t, s.SetAccessToken(ctx, fmt.Sprintf("access-%d-%d", i, j)))
				}
			}(i)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					got, err := s.Get(ctx)
					assert.NoError(t, err)
					assert.NotEmpty(t, got.AccessToken)
					assert.Equal(t, Sample.RefreshToken, got.RefreshToken)
				}
			}()
		}
		wg.Wait()
	})
}
