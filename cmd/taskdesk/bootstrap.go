package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-task-client/apiclient"
	"github.com/jrsteele09/go-task-client/auth"
	"github.com/jrsteele09/go-task-client/internal/config"
	"github.com/jrsteele09/go-task-client/notifications"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/sessions/filestore"
	"github.com/jrsteele09/go-task-client/sessions/memstore"
	"github.com/jrsteele09/go-task-client/sessions/redisstore"
	"github.com/jrsteele09/go-task-client/stats"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
)

const redisPingTimeout = 3 * time.Second

// services is everything a command may need, built once from config.
type services struct {
	auth          *auth.Service
	tasks         *tasks.Service
	users         *users.Service
	notifications *notifications.Service
	stats         *stats.Loader
	close         func() error
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Str("app", c.GetAppName()).Logger()
}

func newServices(ctx context.Context, c config.Config) (*services, error) {
	store, closeStore, err := openSessionStore(ctx, c)
	if err != nil {
		return nil, err
	}

	client, err := apiclient.New(c, store)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	taskService := tasks.NewService(client)
	notificationService := notifications.NewService(client)
	return &services{
		auth:          auth.NewService(client, c),
		tasks:         taskService,
		users:         users.NewService(client),
		notifications: notificationService,
		stats:         stats.NewLoader(taskService, notificationService, c),
		close:         closeStore,
	}, nil
}

// openSessionStore picks the store named by SESSION_BACKEND. The returned
// close func releases any connection the store holds.
func openSessionStore(ctx context.Context, c config.Config) (sessions.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.GetSessionBackend() {
	case config.SessionBackendMemory:
		log.Debug().Msg("Using in-memory session store, the session ends with the process")
		return memstore.New(), noop, nil

	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis session store at %s: %w", c.GetRedisAddr(), err)
		}
		log.Debug().Str("addr", c.GetRedisAddr()).Str("key", c.GetRedisSessionKey()).Msg("Using redis session store")
		return redisstore.New(rdb, c.GetRedisSessionKey()), rdb.Close, nil

	case config.SessionBackendFile:
		store, err := filestore.Open(c.GetDataFolder())
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", store.Path()).Msg("Using file session store")
		return store, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", c.GetSessionBackend())
}
