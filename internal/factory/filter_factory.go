package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/adapters/filter"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/ports"
	"github.com/mikey/mailguard/internal/textproc"
	"github.com/mikey/mailguard/internal/whitelist"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg         *config.Config
	logger      *zap.Logger
	spamService *core.SpamFilterService
	whitelist   *whitelist.Checker
	processor   *textproc.Processor
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	spamService *core.SpamFilterService,
	checker *whitelist.Checker,
	processor *textproc.Processor,
) *FilterFactory {
	return &FilterFactory{
		cfg:         cfg,
		logger:      logger,
		spamService: spamService,
		whitelist:   checker,
		processor:   processor,
	}
}

// FilterOptions maps the configured header names and actions
func (f *FilterFactory) FilterOptions() filter.Options {
	server := f.cfg.GetServer()
	return filter.Options{
		BlockSpam:      server.BlockSpam,
		SpamHeader:     server.SpamHeader,
		ScoreHeader:    server.ScoreHeader,
		ThreatHeader:   server.ThreatHeader,
		KeywordsHeader: server.KeywordsHeader,
		SubjectPrefix:  server.SubjectPrefix,
		ModifySubject:  server.ModifySubject,
	}
}

// CreateEmailFilter creates an email filter based on the configuration.
// It returns nil when no mail filter is configured.
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	server := f.cfg.GetServer()

	switch server.FilterType {
	case "", "none":
		return nil, nil
	case "postfix":
		return filter.NewPostfixFilter(
			f.spamService,
			f.whitelist,
			f.processor,
			f.logger,
			f.FilterOptions(),
			server.ListenAddress,
			server.Postfix.Address,
			server.Postfix.Port,
			server.Postfix.Enabled,
		), nil
	case "milter":
		return filter.NewMilterFilter(
			f.spamService,
			f.whitelist,
			f.processor,
			f.logger,
			f.FilterOptions(),
			server.ListenAddress,
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.spamService,
			f.whitelist,
			f.processor,
			f.logger,
			nil,
			f.cfg.GetBool("cli.verbose"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", server.FilterType)
	}
}
