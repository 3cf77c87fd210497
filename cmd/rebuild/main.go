// Command rebuild resets the read models and replays the whole event log into
// them. Run it while no API instance is projecting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"denomination-wallet/config"
	"denomination-wallet/internal/app"
	"denomination-wallet/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("WLT_CONFIG"), "path to config file")
	workers := flag.Int("workers", 0, "projection workers (default projector.workers)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Storage.Driver == config.DriverMemory {
		log.Fatal().Msg("nothing to rebuild with in-memory storage")
	}
	// The rebuild projects directly; no publisher or cache is involved.
	cfg.Projector.Mode = config.ProjectorModeSync
	cfg.Redis.Enabled = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wallet, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer wallet.Close()

	n := *workers
	if n < 1 {
		n = cfg.Projector.Workers
	}

	start := time.Now()
	count, err := wallet.Projector.Rebuild(ctx, n)
	if err != nil {
		log.Error().Err(err).Int64("events", count).Msg("Rebuild failed")
		wallet.Close()
		os.Exit(1)
	}
	log.Info().
		Int64("events", count).
		Int("workers", n).
		Dur("took", time.Since(start)).
		Msg("Read models rebuilt")
}
