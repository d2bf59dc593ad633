package users_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-task-client/apiclient"
	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/internal/fakeapi"
	"github.com/jrsteele09/go-task-client/internal/utils"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/sessions/memstore"
	"github.com/jrsteele09/go-task-client/users"
)

const testPassword = "password123"

type testFixture struct {
	api     *fakeapi.Server
	admin   users.User
	store   *memstore.Store
	service *users.Service
}

func setupTestFixture(t *testing.T, role sessions.Role) *testFixture {
	t.Helper()

	api := fakeapi.New()
	cfg := fakeapi.ClientConfig(api.Start(t))
	admin := api.AddUser("root", "root@example.com", testPassword, role)
	store := memstore.NewWithSession(sessions.Session{
		AccessToken:  api.AccessTokenFor(admin.ID),
		RefreshToken: api.RefreshTokenFor(admin.ID),
		Role:         role,
	})
	client, err := apiclient.New(cfg, store, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	return &testFixture{api: api, admin: admin, store: store, service: users.NewService(client)}
}

func TestCreateAndList(t *testing.T) {
	f := setupTestFixture(t, sessions.RoleAdminGeneral)
	ctx := context.Background()

	manager, err := f.service.Create(ctx, users.User{
		Username: "maria",
		Email:    "maria@example.com",
		Password: testPassword,
		Role:     sessions.RoleAdmin,
	})
	require.NoError(t, err)
	require.NotZero(t, manager.ID)
	require.Equal(t, sessions.RoleAdmin, manager.RoleDisplay)
	require.Empty(t, manager.Password)

	worker, err := f.service.Create(ctx, users.User{
		Username:     "pablo",
		Email:        "pablo@example.com",
		Password:     testPassword,
		AssignedToID: utils.Ptr(manager.ID),
	})
	require.NoError(t, err)
	require.Equal(t, sessions.RoleEmployee, worker.EffectiveRole(), "role defaults to employee")

	list, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Len(t, users.WithRole(list, sessions.RoleAdmin, sessions.RoleAdminGeneral), 2)

	reports := users.ReportingTo(list, manager.ID)
	require.Len(t, reports, 1)
	require.Equal(t, "pablo", reports[0].Username)
}

func TestCreateValidatesLocally(t *testing.T) {
	f := setupTestFixture(t, sessions.RoleAdminGeneral)
	ctx := context.Background()

	_, err := f.service.Create(ctx, users.User{Username: "x", Email: "not-an-email", Password: testPassword})
	require.ErrorIs(t, err, apierrors.ErrInvalidEmail)

	_, err = f.service.Create(ctx, users.User{Email: "x@example.com", Password: testPassword})
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)

	_, err = f.service.Create(ctx, users.User{Username: "x", Email: "x@example.com", Password: testPassword, Role: "owner"})
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)

	require.Empty(t, f.api.RequestsTo("POST", fakeapi.BasePath+"users/"))
}

func TestCreateDuplicateEmailReturnsAPIError(t *testing.T) {
	f := setupTestFixture(t, sessions.RoleAdminGeneral)

	_, err := f.service.Create(context.Background(), users.User{Username: "dup", Email: "root@example.com", Password: testPassword})
	require.Equal(t, 400, apierrors.StatusCode(err))
}

func TestUpdateAndSetActive(t *testing.T) {
	f := setupTestFixture(t, sessions.RoleAdminGeneral)
	ctx := context.Background()
	emp := f.api.AddUser("lucia", "lucia@example.com", testPassword, sessions.RoleEmployee)

	updated, err := f.service.Update(ctx, emp.ID, users.User{
		ID:       12345,
		Username: "lucia.g",
		Email:    "lucia.g@example.com",
		IsActive: true,
		Role:     sessions.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, emp.ID, updated.ID)
	require.Equal(t, "lucia.g", updated.Username)
	require.Equal(t, sessions.RoleAdmin, updated.RoleDisplay)

	deactivated, err := f.service.SetActive(ctx, emp.ID, false)
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)
	require.Equal(t, "lucia.g", deactivated.Username)

	_, err = f.service.SetActive(ctx, 9999, true)
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestEmployeesCannotListUsers(t *testing.T) {
	f := setupTestFixture(t, sessions.RoleEmployee)

	_, err := f.service.List(context.Background())
	require.Equal(t, 403, apierrors.StatusCode(err))
	require.Equal(t, 1, f.api.RefreshCalls(), "a 403 is treated as a rejected credential once")
}

func TestValidEmail(t *testing.T) {
	require.True(t, users.ValidEmail("a@b.co"))
	require.False(t, users.ValidEmail("a@b"))
	require.False(t, users.ValidEmail("a b@c.de"))
	require.False(t, users.ValidEmail(""))
}
