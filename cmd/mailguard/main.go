package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/adapters/httpapi"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/di"
	"github.com/mikey/mailguard/internal/factory"
	"github.com/mikey/mailguard/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
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
	cfg *config.Config,
	logger *zap.Logger,
	service *core.SpamFilterService,
	httpServer *httpapi.Server,
	emailFilter ports.EmailFilter,
	feedback core.CorpusStore,
	corpusFactory *factory.CorpusFactory,
) error {
	defer logger.Sync()

	if cfg.GetTraining().OnStartup {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		if _, err := service.Train(ctx); err != nil {
			// classification requests will retry training on first use
			logger.Error("Initial training failed", zap.Error(err))
		}
		cancel()
	}

	var runners []ports.Runner
	start := func(name string, r ports.Runner) error {
		if err := r.Start(); err != nil {
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		runners = append(runners, r)
		return nil
	}
	stopAll := func() {
		for i := len(runners) - 1; i >= 0; i-- {
			if err := runners[i].Stop(); err != nil {
				logger.Error("Failed to stop component", zap.Error(err))
			}
		}
	}

	if cfg.GetHTTP().Enabled {
		if err := start("HTTP API", httpServer); err != nil {
			stopAll()
			return err
		}
	}

	if emailFilter != nil {
		if err := start("mail filter", emailFilter); err != nil {
			stopAll()
			return err
		}
	}

	watcher, err := corpusFactory.CreateWatcher(func(ctx context.Context) error {
		_, err := service.Train(ctx)
		return err
	})
	if err != nil {
		stopAll()
		return err
	}
	if watcher != nil {
		if err := start("dataset watcher", watcher); err != nil {
			stopAll()
			return err
		}
	}

	logger.Info("Mail guard running",
		zap.Bool("model_trained", service.IsTrained()),
		zap.String("filter_type", cfg.GetServer().FilterType),
		zap.Int("components", len(runners)))

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	stopAll()

	if feedback != nil {
		if err := feedback.Close(); err != nil {
			logger.Error("Failed to close feedback store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
