package corpus

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mikey/mailguard/internal/core"
)

// yamlCorpus is the on-disk layout of a YAML dataset
type yamlCorpus struct {
	Samples []struct {
		Text  string `yaml:"text"`
		Label string `yaml:"label"`
	} `yaml:"samples"`
}

// YAMLSource reads samples from YAML files
type YAMLSource struct {
	paths  []string
	logger *zap.Logger
}

// NewYAMLSource creates a source over one or more YAML files
func NewYAMLSource(logger *zap.Logger, paths ...string) *YAMLSource {
	return &YAMLSource{paths: paths, logger: logger}
}

// Name implements core.CorpusSource
func (s *YAMLSource) Name() string {
	return "yaml:" + strings.Join(s.paths, ",")
}

// Paths returns the files read by the source
func (s *YAMLSource) Paths() []string {
	return s.paths
}

// Samples implements core.CorpusSource
func (s *YAMLSource) Samples(ctx context.Context) ([]core.Sample, error) {
	var samples []core.Sample
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
		}
		got, dropped, err := ReadYAML(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
		}
		s.logger.Info("Loaded dataset",
			zap.String("path", path),
			zap.Int("samples", len(got)),
			zap.Int("dropped", dropped))
		samples = append(samples, got...)
	}
	return samples, nil
}

// ReadYAML decodes a YAML dataset and reports how many entries it dropped
func ReadYAML(r io.Reader) (samples []core.Sample, dropped int, err error) {
	var doc yamlCorpus
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	for _, entry := range doc.Samples {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			dropped++
			continue
		}
		label, err := core.ParseLabel(entry.Label)
		if err != nil {
			dropped++
			continue
		}
		samples = append(samples, core.Sample{Text: text, Label: label})
	}
	return samples, dropped, nil
}
