package config

import (
	"flag"
	"os"
	"time"

	"github.com/houstonsbarros/hominsaude/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   origin of the backend REST API (default from Config)
//	-t int      HTTP request timeout in seconds (default from Config)
//	-d string   path of the local session database (default from Config)
//	-l string   listen address for the social-login callback server
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendOrigin, "a", cfg.BackendOrigin, "origin of the backend REST API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local session database")
	fs.StringVar(&cfg.CallbackAddr, "l", cfg.CallbackAddr, "listen address for the social-login callback server")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "HTTP request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
