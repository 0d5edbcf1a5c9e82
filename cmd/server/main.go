package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"mapsync/server/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Options{ConfigPath: *configPath}); err != nil {
		log.Fatalf("%v", err)
	}
}
