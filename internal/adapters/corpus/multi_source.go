package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/mailguard/internal/core"
)

// MultiSource concatenates several sources into one training set
type MultiSource struct {
	sources []core.CorpusSource
}

// NewMultiSource creates a source over the given sources, in order
func NewMultiSource(sources ...core.CorpusSource) *MultiSource {
	return &MultiSource{sources: sources}
}

// Name implements core.CorpusSource
func (m *MultiSource) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Samples implements core.CorpusSource
func (m *MultiSource) Samples(ctx context.Context) ([]core.Sample, error) {
	var all []core.Sample
	for _, s := range m.sources {
		samples, err := s.Samples(ctx)
		if err != nil {
			return nil, fmt.Errorf("corpus source %s: %w", s.Name(), err)
		}
		all = append(all, samples...)
	}
	return all, nil
}
