package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roamnet/rover/internal/config"
	"github.com/roamnet/rover/internal/host"
	"github.com/roamnet/rover/internal/registry"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		name       = flag.String("name", "", "host name shown to agents")
		listenAddr = flag.String("listen", "", "listen address")
		publicURL  = flag.String("public", "", "public base URL announced to the registry")
		unsafe     = flag.Bool("unsafe", false, "report this host as unsafe to probing agents")
		debug      = flag.Bool("debug", false, "enable trace and diagnostic messages")
	)
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *name != "" {
		cfg.Name = *name
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *publicURL != "" {
		cfg.PublicURL = *publicURL
	}
	if *unsafe {
		cfg.Safe = false
	}
	if *debug {
		cfg.Debug = true
	}

	logger := config.NewLogger(cfg.Debug)
	logger.Info("starting rover hostd",
		"version", config.Version,
		"name", cfg.Name,
		"listen", cfg.ListenAddr,
		"public", cfg.PublicURL,
		"safe", cfg.Safe,
		"registry", cfg.RegistryURL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	h := host.New(host.Config{
		Name:      cfg.Name,
		PublicURL: cfg.PublicURL,
		Safe:      cfg.Safe,
	}, logger)

	announcer := registry.NewClient(cfg.RegistryURL, logger)
	go announcer.AnnounceLoop(ctx, h.Info(), cfg.AnnounceInterval)

	server := host.NewServer(h, cfg.ListenAddr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down hostd")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("http server error", "err", err)
		os.Exit(1)
	}

	logger.Info("hostd stopped")
}
