package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/adapters/corpus"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/di"
)

var errNoFeedbackStore = errors.New("no feedback store configured, use --feedback")

func newCorpusCmd(flags *di.CLIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage labeled samples in the feedback store",
	}
	cmd.AddCommand(
		newCorpusImportCmd(flags),
		newCorpusAddCmd(flags),
		newCorpusCountCmd(flags),
	)
	return cmd
}

func newCorpusImportCmd(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>...",
		Short: "Import labeled CSV files into the feedback store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(flags, func(feedback core.CorpusStore, logger *zap.Logger) error {
				if feedback == nil {
					return errNoFeedbackStore
				}
				defer feedback.Close()

				total := 0
				for _, path := range args {
					imported, dropped, err := importCSV(cmd, feedback, path)
					if err != nil {
						return err
					}
					logger.Info("Imported dataset",
						zap.String("path", path),
						zap.Int("imported", imported),
						zap.Int("dropped", dropped))
					fmt.Fprintf(cmd.OutOrStdout(), "%s: imported %d, dropped %d\n", path, imported, dropped)
					total += imported
				}

				count, err := feedback.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d samples, store now holds %d\n", total, count)
				return nil
			})
		},
	}
}

func importCSV(cmd *cobra.Command, feedback core.CorpusStore, path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	samples, dropped, err := corpus.ReadCSV(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	for i, sample := range samples {
		if err := feedback.Add(cmd.Context(), sample); err != nil {
			return i, dropped, fmt.Errorf("failed to store sample: %w", err)
		}
	}
	return len(samples), dropped, nil
}

func newCorpusAddCmd(flags *di.CLIFlags) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add one labeled sample to the feedback store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := core.ParseLabel(label)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return core.MalformedInput("sample text is empty")
			}

			return invoke(flags, func(feedback core.CorpusStore) error {
				if feedback == nil {
					return errNoFeedbackStore
				}
				defer feedback.Close()

				if err := feedback.Add(cmd.Context(), core.Sample{Text: text, Label: parsed}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s sample to %s\n", parsed, feedback.Name())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "Sample label (spam or legitimate)")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func newCorpusCountCmd(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count samples in the feedback store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(flags, func(feedback core.CorpusStore) error {
				if feedback == nil {
					return errNoFeedbackStore
				}
				defer feedback.Close()

				count, err := feedback.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)
				return nil
			})
		},
	}
}
