// Package main is the entry point for the todocal CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"todocal/internal/backend/restapi"
	"todocal/internal/cli"
	"todocal/internal/commands"
	"todocal/internal/config"
	"todocal/internal/service"
	"todocal/internal/session"
)

func main() {
	// TODOCAL_* settings may come from a .env file in the working directory
	_ = godotenv.Load()

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	factory := func(ctx context.Context, cfg *config.Config, sess *session.Session) (service.Service, error) {
		return restapi.New(ctx, cfg, sess)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
