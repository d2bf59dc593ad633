package config

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const configFileName = "taskdesk"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
}

type mainConfig struct {
	EnvVars
	API
	Session
}

// New resolves configuration from environment variables, falling back to an
// optional taskdesk.{yaml,json,toml} in the working directory or data folder.
func New() Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.AddConfigPath(".")
	v.AddConfigPath(v.GetString(dataFolderKey))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn().Err(err).Msg("Ignoring unreadable config file")
		}
	}

	return mainConfig{
		EnvVars: EnvVars{v: v},
		API:     API{v: v},
		Session: Session{v: v},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameKey, "Task Desk")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(logLevelKey, "info")
	v.SetDefault(dataFolderKey, "./data")

	v.SetDefault(originKey, "http://localhost:8000")
	v.SetDefault(baseURLKey, DefaultBaseURL)
	v.SetDefault(timeoutKey, "30s")
	v.SetDefault(refreshPathKey, "token/refresh/")
	v.SetDefault(loginPathKey, "token/email/")
	v.SetDefault(upcomingWindowKey, 7)

	v.SetDefault(sessionBackendKey, string(SessionBackendFile))
	v.SetDefault(redisAddrKey, "localhost:6379")
	v.SetDefault(redisDBKey, 0)
	v.SetDefault(redisSessionKeyKey, "taskdesk:session")
}
