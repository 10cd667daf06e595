package main

import (
	"context"
	"log"
	"os"

	"github.com/houstonsbarros/hominsaude/internal/buildinfo"
	"github.com/houstonsbarros/hominsaude/internal/client/cli"
	"github.com/houstonsbarros/hominsaude/internal/client/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
