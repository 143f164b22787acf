package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
	"github.com/mikey/mailguard/internal/whitelist"
)

// CliFilter implements a command-line interface for spam detection
type CliFilter struct {
	service   *core.SpamFilterService
	whitelist *whitelist.Checker
	processor *textproc.Processor
	logger    *zap.Logger
	out       io.Writer
	verbose   bool
}

// NewCliFilter creates a new CLI filter. A nil out writes to stdout.
func NewCliFilter(
	service *core.SpamFilterService,
	checker *whitelist.Checker,
	processor *textproc.Processor,
	logger *zap.Logger,
	out io.Writer,
	verbose bool,
) *CliFilter {
	if out == nil {
		out = os.Stdout
	}
	return &CliFilter{
		service:   service,
		whitelist: checker,
		processor: processor,
		logger:    logger,
		out:       out,
		verbose:   verbose,
	}
}

// SetOutput redirects the report, nil restores stdout
func (f *CliFilter) SetOutput(out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	f.out = out
}

// ParseMessage reads an RFC 5322 message into an Email
func (f *CliFilter) ParseMessage(r io.Reader) (*core.Email, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		// treat input without a header block as a bare body
		return &core.Email{Body: f.processor.Prepare(string(raw))}, nil
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}
	subject, err := decodeEncodedHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	email := &core.Email{
		From:    extractEmailAddress(msg.Header.Get("From")),
		Subject: f.processor.Prepare(subject),
		Body:    f.processor.Prepare(text),
		Headers: msg.Header,
	}
	if to := msg.Header.Get("To"); to != "" {
		if addrs, err := mail.ParseAddressList(to); err == nil {
			for _, a := range addrs {
				email.To = append(email.To, a.Address)
			}
		} else {
			email.To = []string{extractEmailAddress(to)}
		}
	}
	return email, nil
}

// ProcessEmail classifies an email and prints a report
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "From: %s\n", email.From)
	fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := f.processor.Truncate(email.Body, 500)
		if len(preview) < len(email.Body) {
			preview += "..."
		}
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", preview)
	}

	if f.whitelist.IsWhitelisted(email.From) {
		fmt.Fprintf(f.out, "\nSender domain %s is whitelisted, classification skipped\n", whitelist.Domain(email.From))
		return nil, nil
	}

	fmt.Fprintf(f.out, "\n=== Analysis ===\n")
	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}

	fmt.Fprintf(f.out, "Classification: %s\n", result.Classification)
	fmt.Fprintf(f.out, "Spam probability: %.4f\n", result.SpamProbability)
	fmt.Fprintf(f.out, "Confidence: %.4f\n", result.Confidence)
	fmt.Fprintf(f.out, "Threat level: %s\n", result.ThreatLevel)
	if len(result.Keywords) > 0 {
		fmt.Fprintf(f.out, "Keywords: %s\n", strings.Join(result.Keywords, ", "))
	}
	fmt.Fprintf(f.out, "Algorithm: %s (v%s)\n", result.Algorithm, result.ModelVersion)
	fmt.Fprintf(f.out, "Processing time: %v\n", result.ProcessingTime)

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
