package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/textproc"
)

// TextProcessorFactory creates text processors
type TextProcessorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new Processor bounded by spam.max_body_size
func (f *TextProcessorFactory) CreateTextProcessor() *textproc.Processor {
	return textproc.NewProcessor(f.logger, f.cfg.GetSpam().MaxBodySize)
}
