package config

import (
	"encoding/json"
	"os"

	"github.com/houstonsbarros/hominsaude/internal/flagx"
	"github.com/houstonsbarros/hominsaude/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify durations either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	BackendOrigin  string         `json:"backend_origin"`
	DatabasePath   string         `json:"database_path"`
	CallbackAddr   string         `json:"callback_addr"`
	CallbackPath   string         `json:"callback_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	UserCacheTTL   timex.Duration `json:"user_cache_ttl"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// The DTO is seeded from the current Config so keys absent from the file
// keep their earlier values. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	jc := JsonConfig{
		BackendOrigin:  cfg.BackendOrigin,
		DatabasePath:   cfg.DatabasePath,
		CallbackAddr:   cfg.CallbackAddr,
		CallbackPath:   cfg.CallbackPath,
		RequestTimeout: timex.Duration{Duration: cfg.RequestTimeout},
		UserCacheTTL:   timex.Duration{Duration: cfg.UserCacheTTL},
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.BackendOrigin = jc.BackendOrigin
	cfg.DatabasePath = jc.DatabasePath
	cfg.CallbackAddr = jc.CallbackAddr
	cfg.CallbackPath = jc.CallbackPath
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.UserCacheTTL = jc.UserCacheTTL.Duration
}
