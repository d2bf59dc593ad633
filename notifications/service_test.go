package notifications_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-task-client/apiclient"
	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/internal/fakeapi"
	"github.com/jrsteele09/go-task-client/notifications"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/sessions/memstore"
	"github.com/jrsteele09/go-task-client/users"
)

type testFixture struct {
	api     *fakeapi.Server
	user    users.User
	service *notifications.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := fakeapi.New()
	cfg := fakeapi.ClientConfig(api.Start(t))
	user := api.AddUser("dana", "dana@example.com", "password123", sessions.RoleEmployee)
	store := memstore.NewWithSession(sessions.Session{
		AccessToken:  api.AccessTokenFor(user.ID),
		RefreshToken: api.RefreshTokenFor(user.ID),
		Role:         sessions.RoleEmployee,
	})
	client, err := apiclient.New(cfg, store, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	return &testFixture{api: api, user: user, service: notifications.NewService(client)}
}

func TestListReturnsOwnNotificationsNewestFirst(t *testing.T) {
	f := setupTestFixture(t)
	other := f.api.AddUser("erik", "erik@example.com", "password123", sessions.RoleEmployee)
	first := f.api.AddNotification(f.user.ID, 1, notifications.TypeNewTask, "Nueva tarea")
	f.api.AddNotification(other.ID, 1, notifications.TypeComment, "Not for dana")
	second := f.api.AddNotification(f.user.ID, 1, notifications.TypeDueSoon, "Vence mañana")

	list, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
	require.Equal(t, notifications.TypeDueSoon, list[0].Type)
	require.False(t, list[0].IsRead)
}

func TestMarkRead(t *testing.T) {
	f := setupTestFixture(t)
	n := f.api.AddNotification(f.user.ID, 1, notifications.TypeStatus, "Estado cambiado")

	require.NoError(t, f.service.MarkRead(context.Background(), n.ID))
	unread, err := f.service.Unread(context.Background())
	require.NoError(t, err)
	require.Empty(t, unread)

	err = f.service.MarkRead(context.Background(), 9999)
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	f := setupTestFixture(t)
	for range 12 {
		f.api.AddNotification(f.user.ID, 1, notifications.TypeAttachment, "Nuevo archivo")
	}
	read := f.api.AddNotification(f.user.ID, 1, notifications.TypeComment, "Comentario")
	require.NoError(t, f.service.MarkRead(context.Background(), read.ID))

	n, err := f.service.MarkAllRead(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, n)

	for _, got := range f.api.Notifications(f.user.ID) {
		require.True(t, got.IsRead)
	}

	n, err = f.service.MarkAllRead(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUnreadKeepsOrder(t *testing.T) {
	list := []notifications.Notification{
		{ID: 3, IsRead: false},
		{ID: 2, IsRead: true},
		{ID: 1, IsRead: false},
	}
	unread := notifications.Unread(list)
	require.Len(t, unread, 2)
	require.Equal(t, 3, unread[0].ID)
	require.Equal(t, 1, unread[1].ID)
}
