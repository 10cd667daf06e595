package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://localhost:8000", c.BackendOrigin)
	assert.Equal(t, "homin.db", c.DatabasePath)
	assert.Equal(t, "127.0.0.1:8910", c.CallbackAddr)
	assert.Equal(t, "/auth/callback", c.CallbackPath)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, 5*time.Minute, c.UserCacheTTL)
}

func TestCallbackURL(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Equal(t, "http://127.0.0.1:8910/auth/callback", c.CallbackURL())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://localhost:8000", cfg.BackendOrigin)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
