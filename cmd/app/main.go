// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rag-chat-client/internal/application"
	"rag-chat-client/internal/config"
	"rag-chat-client/internal/infra/logging"
	"rag-chat-client/internal/infra/metrics"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (verbose logs, unredacted secrets)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("rag-chat %s (%s)\n", version, commit)
		return
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logging ----
	logOut, err := logging.OpenOutput(cfg.Log.File)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logOut.Close()
	logger := logging.New(cfg.Log, cfg.Runtime.Dev, logOut)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Application ----
	app, err := application.NewChatApp(ctx, cfg, os.Stdin, os.Stdout, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		log.Fatalf("startup: %v", err)
	}

	logger.Info().
		Str("version", version).
		Str("endpoint", cfg.API.Endpoint).
		Str("storage", cfg.Storage.Driver).
		Msg("rag chat started")

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		logger.Warn().Err(err).Msg("close")
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error().Err(runErr).Msg("exited with error")
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
	logger.Info().Msg("bye")
}
