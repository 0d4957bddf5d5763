// Command server runs the employee registry HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bissquit/employee-registry/internal/app"
	"github.com/bissquit/employee-registry/internal/config"
	"github.com/bissquit/employee-registry/internal/pkg/postgres"
	"github.com/bissquit/employee-registry/internal/version"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("EMS_CONFIG"), "path to YAML config file")
	migrate := flag.Bool("migrate", false, "apply database migrations before starting")
	migrationsDir := flag.String("migrations", "migrations", "directory with SQL migrations")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(app.NewLogger(cfg.Log))

	if *migrate {
		v, err := postgres.Migrate(cfg.Database.URL, *migrationsDir)
		if err != nil {
			return err
		}
		slog.Info("database migrated", "version", v)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return application.Shutdown(shutdownCtx)
}
