package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/angelmondragon/caskettrack/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "scanner"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "scanner",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg.Info(logg.WithField(ctx, "backend_url", cfg.Scanner.BackendURL), "scanner client ready")

	client := newScanClient(cfg.Scanner.BackendURL, cfg.Scanner.Timeout)
	if err := capture(ctx, os.Stdin, os.Stdout, client); err != nil {
		logg.Error(ctx, "reading scanner input failed", err)
		os.Exit(1)
	}
}
