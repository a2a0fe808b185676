// Package main provides the entry point for the FusionChef wizard API server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/container"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	// A missing .env is normal outside local development
	_ = godotenv.Load()

	app := fx.New(
		fx.NopLogger, // Use our own logger instead of Fx's
		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
	)
	if err := app.Err(); err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		if sig.ExitCode != 0 {
			fmt.Fprintf(os.Stderr, "application exited with code %d\n", sig.ExitCode)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Fatalf("Failed to stop application gracefully: %v", err)
	}
}
