package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/ghl-ops/internal/adapters/intake"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/di"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	server *intake.Server,
	classifier core.LeadClassifier,
	ledger core.Ledger,
) error {
	defer logger.Sync()
	defer ledger.Stop()

	// Start the intake server
	if err := server.Start(); err != nil {
		logger.Error("Failed to start intake server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop intake server", zap.Error(err))
	}

	// Close any classifier clients that hold connections
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
