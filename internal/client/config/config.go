package config

import "time"

// Config holds runtime settings for the HOMIN+ CLI.
//
// Fields:
//   - BackendOrigin: scheme://host:port of the backend REST API.
//   - RequestTimeout: per-request HTTP timeout.
//   - DatabasePath: path of the local SQLite session database.
//   - UserCacheTTL: how long a cached profile snapshot stays fresh.
//   - CallbackAddr: listen address for the social-login callback server.
//   - CallbackPath: URL path the callback server answers on.
type Config struct {
	BackendOrigin  string
	DatabasePath   string
	CallbackAddr   string
	CallbackPath   string
	RequestTimeout time.Duration
	UserCacheTTL   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendOrigin = "http://localhost:8000"
	c.DatabasePath = "homin.db"
	c.CallbackAddr = "127.0.0.1:8910"
	c.CallbackPath = "/auth/callback"
	c.RequestTimeout = 30 * time.Second
	c.UserCacheTTL = 5 * time.Minute
}

// CallbackURL returns the absolute URL the social-login flow should redirect
// back to.
func (c *Config) CallbackURL() string {
	return "http://" + c.CallbackAddr + c.CallbackPath
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
