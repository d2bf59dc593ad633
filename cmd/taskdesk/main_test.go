package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-task-client/internal/fakeapi"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/sessions/filestore"
	"github.com/jrsteele09/go-task-client/tasks"
)

func setupCLI(t *testing.T) (*fakeapi.Server, *bytes.Buffer, string) {
	t.Helper()

	api := fakeapi.New()
	dataFolder := t.TempDir()
	t.Setenv("API_ORIGIN", api.Start(t))
	t.Setenv("DATA_FOLDER", dataFolder)
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	stdout = &out
	t.Cleanup(func() { stdout = os.Stdout })
	return api, &out, dataFolder
}

func TestLoginPersistsSessionAcrossRuns(t *testing.T) {
	api, out, dataFolder := setupCLI(t)
	admin := api.AddUser("ines", "ines@example.com", "password123", sessions.RoleAdmin)
	api.AddTask(tasks.Task{
		Title:      "File taxes",
		Status:     tasks.StatusPending,
		Priority:   tasks.PriorityHigh,
		DueDate:    tasks.NewDate(time.Now().AddDate(0, 0, 2)),
		AssignedTo: api.UserRef(admin.ID),
	})

	require.NoError(t, run([]string{"login", "-email", "ines@example.com", "-password", "password123"}))
	require.Contains(t, out.String(), "Logged in as ines (admin)")

	info, err := os.Stat(filepath.Join(dataFolder, filestore.FileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out.Reset()
	require.NoError(t, run([]string{"tasks", "-mine"}))
	require.Contains(t, out.String(), "File taxes")
	require.Contains(t, out.String(), "ines")

	out.Reset()
	require.NoError(t, run([]string{"stats"}))
	require.Contains(t, out.String(), "Total 1")
	require.Contains(t, out.String(), "Upcoming 1")

	require.NoError(t, run([]string{"logout"}))
	require.Error(t, run([]string{"whoami"}))
}

func TestUnknownCommand(t *testing.T) {
	setupCLI(t)
	require.ErrorIs(t, run(nil), errUsage)
	require.ErrorIs(t, run([]string{"frobnicate"}), errUsage)
	require.ErrorIs(t, run([]string{"login"}), errUsage)
}

func TestNotificationsReadAll(t *testing.T) {
	api, out, _ := setupCLI(t)
	u := api.AddUser("jon", "jon@example.com", "password123", sessions.RoleEmployee)
	api.AddNotification(u.ID, 1, "nueva", "Nueva tarea")
	api.AddNotification(u.ID, 1, "estado", "Estado cambiado")

	require.NoError(t, run([]string{"login", "-email", "jon@example.com", "-password", "password123"}))
	out.Reset()
	require.NoError(t, run([]string{"notifications", "-read-all"}))
	require.Contains(t, out.String(), "Marked 2 notification(s) as read")
}

func TestUsersFilteredByRole(t *testing.T) {
	api, out, _ := setupCLI(t)
	api.AddUser("root", "root@example.com", "password123", sessions.RoleAdminGeneral)
	api.AddUser("ana", "ana@example.com", "password123", sessions.RoleAdmin)
	api.AddUser("leo", "leo@example.com", "password123", sessions.RoleEmployee)

	require.NoError(t, run([]string{"login", "-email", "root@example.com", "-password", "password123"}))
	out.Reset()
	require.NoError(t, run([]string{"users", "-role", "empleado"}))
	require.Contains(t, out.String(), "leo@example.com")
	require.NotContains(t, out.String(), "ana@example.com")

	require.Error(t, run([]string{"users", "-role", "owner"}))
}
