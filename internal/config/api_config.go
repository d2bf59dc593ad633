package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the API prefix used when API_BASE_URL is unset. It is
// relative and gets resolved against the origin.
const DefaultBaseURL = "/api/"

const (
	originKey         = "api_origin"
	baseURLKey        = "api_base_url"
	timeoutKey        = "api_timeout"
	refreshPathKey    = "api_refresh_path"
	loginPathKey      = "api_login_path"
	upcomingWindowKey = "upcoming_window_days"
)

type APIConfig interface {
	GetOrigin() string
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshPath() string
	GetLoginPath() string
	GetUpcomingWindow() time.Duration
}

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetOrigin returns the scheme and host a relative base URL is resolved against (e.g. "http://localhost:8000")
func (a API) GetOrigin() string {
	return a.v.GetString(originKey)
}

func (a API) GetBaseURL() string {
	base := a.v.GetString(baseURLKey)
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

// GetRequestTimeout is applied per HTTP round trip. Zero disables it.
func (a API) GetRequestTimeout() time.Duration {
	return a.v.GetDuration(timeoutKey)
}

func (a API) GetRefreshPath() string {
	return a.v.GetString(refreshPathKey)
}

func (a API) GetLoginPath() string {
	return a.v.GetString(loginPathKey)
}

func (a API) GetUpcomingWindow() time.Duration {
	return time.Duration(a.v.GetInt(upcomingWindowKey)) * 24 * time.Hour
}
