// Command web serves the specimen analysis API.
package main

import (
	"flag"
	"log/slog"
	"os"

	"concretelab/internal/app"
	"concretelab/internal/config"
)

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml when present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
