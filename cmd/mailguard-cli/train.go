package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/di"
)

func newTrainCmd(flags *di.CLIFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the model and report held-out metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(flags, func(service *core.SpamFilterService) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
				defer cancel()

				metrics, err := service.Train(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), metrics)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "=== Training ===\n")
				fmt.Fprintf(out, "Accuracy:  %.4f\n", metrics.Accuracy)
				fmt.Fprintf(out, "Precision: %.4f\n", metrics.Precision)
				fmt.Fprintf(out, "Recall:    %.4f\n", metrics.Recall)
				fmt.Fprintf(out, "F1 score:  %.4f\n", metrics.F1Score)
				fmt.Fprintf(out, "Samples:   %d\n", metrics.TrainingSize)
				fmt.Fprintf(out, "Features:  %d\n", metrics.FeaturesCount)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the metrics as JSON")
	return cmd
}

func newInfoCmd(flags *di.CLIFlags) *cobra.Command {
	var trainFirst bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show model information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(flags, func(service *core.SpamFilterService) error {
				if trainFirst {
					ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
					defer cancel()
					if _, err := service.Train(ctx); err != nil {
						return err
					}
				}
				return writeJSON(cmd.OutOrStdout(), service.ModelInfo())
			})
		},
	}
	cmd.Flags().BoolVar(&trainFirst, "train", false, "Train before reporting")
	return cmd
}
