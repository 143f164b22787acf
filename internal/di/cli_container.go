package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/logging"
)

// CLIFlags contains the command line flags shared by every CLI command
type CLIFlags struct {
	// Corpus flags
	CorpusType      string
	CorpusPaths     []string
	IncludeEmbedded bool

	// Feedback store flags
	FeedbackType string
	FeedbackPath string

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg := config.NewFromViper(config.NewEmptyViper())
		if flags.ConfigFile != "" {
			var err error
			cfg, err = config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		}
		applyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideService(container); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags overrides configuration with the flags that were given
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	cfg.Set("server.filter_type", "cli")
	cfg.Set("cli.verbose", flags.Verbose)
	cfg.Set("metrics.runtime", false)

	if flags.CorpusType != "" {
		cfg.Set("corpus.type", flags.CorpusType)
	}
	if len(flags.CorpusPaths) > 0 {
		cfg.Set("corpus.paths", flags.CorpusPaths)
	}
	if flags.IncludeEmbedded {
		cfg.Set("corpus.include_embedded", true)
	}
	if flags.FeedbackType != "" {
		cfg.Set("feedback.type", flags.FeedbackType)
	}
	if flags.FeedbackPath != "" {
		cfg.Set("feedback.sqlite_path", flags.FeedbackPath)
	}
}
