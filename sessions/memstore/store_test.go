package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/sessions/memstore"
	"github.com/jrsteele09/go-task-client/sessions/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) sessions.Store {
		return memstore.New()
	})
}

func TestNewWithSession(t *testing.T) {
	s := memstore.NewWithSession(storetest.Sample)
	got, err := s.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, storetest.Sample, got)
}
