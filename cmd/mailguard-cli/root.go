package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mikey/mailguard/internal/di"
)

func newRootCmd() *cobra.Command {
	flags := &di.CLIFlags{}

	root := &cobra.Command{
		Use:   "mailguard-cli",
		Short: "Classify mail with the local spam model",
		Long: `mailguard-cli trains the TF-IDF + Naive Bayes spam model on the configured
corpus and classifies messages from files, stdin or the command line.

Every invocation trains from scratch; use a feedback store to keep labeled
samples between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	pf.StringVar(&flags.CorpusType, "corpus", "", "Corpus type (embedded, csv, yaml)")
	pf.StringSliceVar(&flags.CorpusPaths, "dataset", nil, "Dataset file, may be repeated")
	pf.BoolVar(&flags.IncludeEmbedded, "with-embedded", false, "Merge the built-in samples into file datasets")
	pf.StringVar(&flags.FeedbackType, "feedback", "", "Feedback store (none, memory, sqlite, mysql, postgres, redis)")
	pf.StringVar(&flags.FeedbackPath, "feedback-db", "", "SQLite feedback database path")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	root.AddCommand(
		newClassifyCmd(flags),
		newTrainCmd(flags),
		newInfoCmd(flags),
		newCorpusCmd(flags),
	)
	return root
}

// invoke builds the CLI container and runs fn with its dependencies
func invoke(flags *di.CLIFlags, fn any) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(fn)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
