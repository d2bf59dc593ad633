package fakeapi

import (
	"time"

	"github.com/jrsteele09/go-task-client/internal/config"
)

// Config points a client at a running fake. Fields may be changed before
// the client is built.
type Config struct {
	Origin         string
	BaseURL        string
	Timeout        time.Duration
	RefreshPath    string
	LoginPath      string
	UpcomingWindow time.Duration
}

var _ config.APIConfig = Config{}

func ClientConfig(origin string) Config {
	return Config{
		Origin:         origin,
		BaseURL:        BasePath,
		Timeout:        5 * time.Second,
		RefreshPath:    "token/refresh/",
		LoginPath:      "token/email/",
		UpcomingWindow: 7 * 24 * time.Hour,
	}
}

func (c Config) GetOrigin() string                { return c.Origin }
func (c Config) GetBaseURL() string               { return c.BaseURL }
func (c Config) GetRequestTimeout() time.Duration { return c.Timeout }
func (c Config) GetRefreshPath() string           { return c.RefreshPath }
func (c Config) GetLoginPath() string             { return c.LoginPath }
func (c Config) GetUpcomingWindow() time.Duration { return c.UpcomingWindow }
