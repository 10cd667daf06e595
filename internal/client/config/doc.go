// Package config loads runtime configuration for the HOMIN+ CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   origin of the backend REST API
//	-t int      HTTP request timeout (seconds)
//	-d string   path of the local session database
//	-l string   listen address for the social-login callback server
//
// # JSON schema
//
// The JSON loader uses timex.Duration for durations, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "backend_origin": "http://localhost:8000",
//	  "database_path": "homin.db",
//	  "callback_addr": "127.0.0.1:8910",
//	  "callback_path": "/auth/callback",
//	  "request_timeout": "30s",
//	  "user_cache_ttl": "5m"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
