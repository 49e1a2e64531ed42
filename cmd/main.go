package main

import (
	"fmt"
	"os"

	"capdeck/config"
	"capdeck/internal/app"
	"capdeck/internal/cli"
	"capdeck/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.Setup(cfg)

	deps := &cli.Dependencies{
		Config: cfg,
		Log:    log,
		// Deferred so persistent flags are parsed into cfg first.
		NewApp: func() (*app.App, error) {
			return app.New(cfg, log)
		},
	}

	return cli.NewRootCmd(deps).Execute()
}
