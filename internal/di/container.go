package di

import (
	"context"
	"net/http"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/adapters/httpapi"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/factory"
	"github.com/mikey/mailguard/internal/logging"
	"github.com/mikey/mailguard/internal/metrics"
	"github.com/mikey/mailguard/internal/ports"
	"github.com/mikey/mailguard/internal/textproc"
	"github.com/mikey/mailguard/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideService(container); err != nil {
		return nil, err
	}

	// Register HTTP API
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.SpamFilterService,
		feedback core.CorpusStore,
		collector *metrics.Collector,
		processor *textproc.Processor,
		logger *zap.Logger,
	) *httpapi.Server {
		var metricsHandler http.Handler
		if cfg.GetMetrics().Enabled {
			metricsHandler = collector.Handler()
		}
		return httpapi.NewServer(service, feedback, metricsHandler, processor, logger, cfg.GetHTTP().Addr())
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideService registers everything from the corpus up to the mail filter
func provideService(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewCorpusFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTrainingFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return err
	}

	// Register feedback store, nil when disabled
	if err := container.Provide(func(f *factory.CorpusFactory) (core.CorpusStore, error) {
		return f.CreateFeedbackStore(context.Background())
	}); err != nil {
		return err
	}

	// Register corpus source
	if err := container.Provide(func(f *factory.CorpusFactory, feedback core.CorpusStore) (core.CorpusSource, error) {
		return f.CreateCorpusSource(feedback)
	}); err != nil {
		return err
	}

	// Register trainer
	if err := container.Provide(func(f *factory.TrainingFactory, source core.CorpusSource) (core.Trainer, error) {
		return f.CreateTrainer(source)
	}); err != nil {
		return err
	}

	// Register metrics
	if err := container.Provide(func(cfg *config.Config) *metrics.Collector {
		return metrics.NewCollector(cfg.GetMetrics().Runtime)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(c *metrics.Collector) core.MetricsRecorder {
		return c
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *textproc.Processor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register whitelist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetSpam().WhitelistedDomains, logger)
	}); err != nil {
		return err
	}

	// Register spam filter service
	if err := container.Provide(core.NewSpamFilterService); err != nil {
		return err
	}

	// Register email filter, nil when none is configured
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return err
	}

	return nil
}
