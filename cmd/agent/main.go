package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roamnet/rover/internal/agent"
	"github.com/roamnet/rover/internal/config"
)

func main() {
	cfg, err := config.ParseFlags("rover-agent", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Debug)
	logger.Info("starting rover agent",
		"version", config.Version,
		"build_time", config.BuildTime,
		"id", cfg.Label,
		"tagged", cfg.StartTagged,
		"registry", cfg.RegistryURL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create agent", "err", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("agent exited with error", "err", err)
		os.Exit(1)
	}

	// A nil return means the agent migrated: it lives on at the
	// destination host and this launcher process is done.
	logger.Info("agent migrated away, launcher exiting", "id", cfg.Label)
}
