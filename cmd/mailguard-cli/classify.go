package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/adapters/filter"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/di"
	"github.com/mikey/mailguard/internal/ports"
)

type classifyOptions struct {
	file       string
	subject    string
	content    string
	sender     string
	jsonOutput bool
}

// resultView is the JSON shape of a classification
type resultView struct {
	Classification   string   `json:"classification"`
	ThreatLevel      string   `json:"threat_level"`
	Confidence       float64  `json:"confidence"`
	SpamProbability  float64  `json:"spam_probability"`
	Keywords         []string `json:"keywords"`
	ProcessingTimeMs float64  `json:"processing_time_ms"`
	Algorithm        string   `json:"algorithm"`
	ModelVersion     string   `json:"model_version"`
	Sender           string   `json:"sender,omitempty"`
}

func newResultView(r *core.ClassificationResult) resultView {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return resultView{
		Classification:   string(r.Classification),
		ThreatLevel:      string(r.ThreatLevel),
		Confidence:       r.Confidence,
		SpamProbability:  r.SpamProbability,
		Keywords:         keywords,
		ProcessingTimeMs: float64(r.ProcessingTime.Microseconds()) / 1000,
		Algorithm:        r.Algorithm,
		ModelVersion:     r.ModelVersion,
		Sender:           r.Sender,
	}
}

func newClassifyCmd(flags *di.CLIFlags) *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one message",
		Long: `Classify an RFC 822 message read from --file or stdin, or a message given
directly with --subject and --content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(flags, func(
				logger *zap.Logger,
				service *core.SpamFilterService,
				emailFilter ports.EmailFilter,
			) error {
				cli, ok := emailFilter.(*filter.CliFilter)
				if !ok {
					return fmt.Errorf("unexpected filter type %T", emailFilter)
				}
				return runClassify(cmd, opts, cli, service, logger)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Input email file (stdin if not given)")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&opts.content, "content", "", "Message content")
	cmd.Flags().StringVar(&opts.sender, "sender", "", "Message sender")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func runClassify(cmd *cobra.Command, opts *classifyOptions, cli *filter.CliFilter, service *core.SpamFilterService, logger *zap.Logger) error {
	var email *core.Email
	if opts.subject != "" || opts.content != "" {
		email = &core.Email{From: opts.sender, Subject: opts.subject, Body: opts.content}
	} else {
		var in io.Reader = cmd.InOrStdin()
		if opts.file != "" {
			file, err := os.Open(opts.file)
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer file.Close()
			in = file
			logger.Info("Reading email from file", zap.String("file", opts.file))
		}
		parsed, err := cli.ParseMessage(in)
		if err != nil {
			return err
		}
		email = parsed
		if opts.sender != "" {
			email.From = opts.sender
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	if !opts.jsonOutput {
		cli.SetOutput(cmd.OutOrStdout())
		_, err := cli.ProcessEmail(ctx, email)
		return err
	}

	if strings.TrimSpace(email.Subject) == "" && strings.TrimSpace(email.Body) == "" {
		return core.MalformedInput("either subject or content must be provided")
	}
	result, err := service.AnalyzeEmail(ctx, email)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), newResultView(result))
}
