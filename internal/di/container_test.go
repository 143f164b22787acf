package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mailguard/internal/adapters/filter"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/ports"
)

func TestBuildCLIContainer(t *testing.T) {
	container, err := BuildCLIContainer(&CLIFlags{FeedbackType: "memory"})
	require.NoError(t, err)

	err = container.Invoke(func(
		service *core.SpamFilterService,
		feedback core.CorpusStore,
		emailFilter ports.EmailFilter,
	) {
		defer feedback.Close()
		assert.IsType(t, &filter.CliFilter{}, emailFilter)

		ctx := context.Background()
		require.NoError(t, feedback.Add(ctx, core.Sample{Text: "quarterly planning notes attached", Label: core.LabelLegitimate}))

		metrics, err := service.Train(ctx)
		require.NoError(t, err)
		assert.Positive(t, metrics.TrainingSize)

		result, err := service.AnalyzeEmail(ctx, &core.Email{Subject: "Free money now, click to claim!!"})
		require.NoError(t, err)
		assert.Equal(t, core.LabelSpam, result.Classification)
	})
	require.NoError(t, err)
}

func TestBuildCLIContainerFeedbackDisabled(t *testing.T) {
	container, err := BuildCLIContainer(&CLIFlags{})
	require.NoError(t, err)

	err = container.Invoke(func(feedback core.CorpusStore, source core.CorpusSource) {
		assert.Nil(t, feedback)
		assert.Equal(t, "embedded", source.Name())
	})
	require.NoError(t, err)
}

func TestBuildCLIContainerBadConfigFile(t *testing.T) {
	container, err := BuildCLIContainer(&CLIFlags{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)

	err = container.Invoke(func(*core.SpamFilterService) {})
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	applyFlags(cfg, &CLIFlags{
		CorpusType:      "csv",
		CorpusPaths:     []string{"a.csv", "b.csv"},
		IncludeEmbedded: true,
		FeedbackType:    "sqlite",
		FeedbackPath:    "/tmp/fb.db",
		Verbose:         true,
	})

	assert.Equal(t, "cli", cfg.GetServer().FilterType)
	assert.True(t, cfg.GetBool("cli.verbose"))
	assert.Equal(t, config.CorpusConfig{Type: "csv", Paths: []string{"a.csv", "b.csv"}, IncludeEmbedded: true}, cfg.GetCorpus())

	feedback, err := cfg.GetFeedback()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", feedback.Type)
	assert.Equal(t, "/tmp/fb.db", feedback.SQLitePath)
}
