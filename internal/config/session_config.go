package config

import "github.com/spf13/viper"

type SessionBackend string

const (
	SessionBackendFile   SessionBackend = "file"
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)

const (
	sessionBackendKey  = "session_backend"
	redisAddrKey       = "redis_addr"
	redisPasswordKey   = "redis_password"
	redisDBKey         = "redis_db"
	redisSessionKeyKey = "redis_session_key"
)

type SessionConfig interface {
	GetSessionBackend() SessionBackend
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisSessionKey() string
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

func (s Session) GetSessionBackend() SessionBackend {
	return SessionBackend(s.v.GetString(sessionBackendKey))
}

func (s Session) GetRedisAddr() string {
	return s.v.GetString(redisAddrKey)
}

func (s Session) GetRedisPassword() string {
	return s.v.GetString(redisPasswordKey)
}

func (s Session) GetRedisDB() int {
	return s.v.GetInt(redisDBKey)
}

// GetRedisSessionKey is the hash key holding the persisted session
func (s Session) GetRedisSessionKey() string {
	return s.v.GetString(redisSessionKeyKey)
}
