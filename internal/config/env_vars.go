package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	appNameKey    = "app_name"
	envKey        = "env"
	logLevelKey   = "log_level"
	dataFolderKey = "data_folder"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameKey)
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.v.GetString(envKey))
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.v.GetString(logLevelKey))
}

func (e EnvVars) GetDataFolder() string {
	return e.v.GetString(dataFolderKey)
}
