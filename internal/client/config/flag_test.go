package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "https://api.hominmais.com.br", "-t", "10", "-d", "/tmp/s.db", "-l", "127.0.0.1:9000"},
			expected: &Config{
				BackendOrigin:  "https://api.hominmais.com.br",
				DatabasePath:   "/tmp/s.db",
				CallbackAddr:   "127.0.0.1:9000",
				RequestTimeout: 10 * time.Second,
			},
		},
		{
			name:        "incorrect timeout",
			args:        []string{"cmd", "-a", "https://api.hominmais.com.br", "-t", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Equal(t, tt.expected, config)
		})
	}
}
