package textproc

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Processor bounds and cleans message text before it reaches the model
type Processor struct {
	logger      *zap.Logger
	maxBodySize int
}

// NewProcessor creates a new Processor. maxBodySize <= 0 disables truncation.
func NewProcessor(logger *zap.Logger, maxBodySize int) *Processor {
	return &Processor{
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// MaxBodySize returns the configured byte limit
func (p *Processor) MaxBodySize() int {
	return p.maxBodySize
}

// Truncate cuts text to at most maxSize bytes without splitting a rune
func (p *Processor) Truncate(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}

	p.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated
}

// SanitizeUTF8 drops invalid UTF-8 byte sequences
func (p *Processor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")
	p.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))
	return sanitized
}

// Prepare sanitizes text and applies the configured size limit
func (p *Processor) Prepare(text string) string {
	return p.Truncate(p.SanitizeUTF8(text), p.maxBodySize)
}
