package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-task-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("DATA_FOLDER", t.TempDir())
	c := config.New()

	require.Equal(t, config.DefaultBaseURL, c.GetBaseURL())
	require.Equal(t, "http://localhost:8000", c.GetOrigin())
	require.Equal(t, "token/refresh/", c.GetRefreshPath())
	require.Equal(t, "token/email/", c.GetLoginPath())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout())
	require.Equal(t, 7*24*time.Hour, c.GetUpcomingWindow())
	require.Equal(t, config.SessionBackendFile, c.GetSessionBackend())
	require.Equal(t, "DEV", c.GetEnv())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATA_FOLDER", t.TempDir())
	t.Setenv("API_BASE_URL", "https://tasks.example.com/api/")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("UPCOMING_WINDOW_DAYS", "3")
	t.Setenv("ENV", "prod")

	c := config.New()

	require.Equal(t, "https://tasks.example.com/api/", c.GetBaseURL())
	require.Equal(t, 5*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.SessionBackendRedis, c.GetSessionBackend())
	require.Equal(t, 3, c.GetRedisDB())
	require.Equal(t, 3*24*time.Hour, c.GetUpcomingWindow())
	require.Equal(t, "PROD", c.GetEnv())
}
