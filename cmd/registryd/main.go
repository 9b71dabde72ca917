package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roamnet/rover/internal/config"
	"github.com/roamnet/rover/internal/registry"
)

func main() {
	var (
		listenAddr = flag.String("listen", ":7470", "listen address")
		ttl        = flag.Duration("ttl", registry.DefaultTTL, "host announcement time-to-live")
		debug      = flag.Bool("debug", false, "enable trace and diagnostic messages")
	)
	flag.Parse()

	logger := config.NewLogger(*debug)
	logger.Info("starting rover registryd",
		"version", config.Version,
		"listen", *listenAddr,
		"ttl", *ttl,
	)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	table := registry.NewTable(*ttl, logger)
	server := registry.NewServer(table, *listenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down registryd")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("http server error", "err", err)
		os.Exit(1)
	}

	logger.Info("registryd stopped")
}
