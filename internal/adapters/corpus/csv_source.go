package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
)

var (
	labelColumns   = []string{"category", "label", "class", "type"}
	textColumns    = []string{"message", "text", "body", "content", "email"}
	subjectColumns = []string{"subject"}
)

// CSVSource reads labeled samples from CSV files with a header row
type CSVSource struct {
	paths  []string
	logger *zap.Logger
}

// NewCSVSource creates a source over one or more CSV files
func NewCSVSource(logger *zap.Logger, paths ...string) *CSVSource {
	return &CSVSource{paths: paths, logger: logger}
}

// Name implements core.CorpusSource
func (s *CSVSource) Name() string {
	return "csv:" + strings.Join(s.paths, ",")
}

// Paths returns the files read by the source
func (s *CSVSource) Paths() []string {
	return s.paths
}

// Samples reads every file. Rows with a missing message, a missing label or
// an unknown label are dropped.
func (s *CSVSource) Samples(ctx context.Context) ([]core.Sample, error) {
	var samples []core.Sample
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
		}
		got, dropped, err := ReadCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
		}
		s.logger.Info("Loaded dataset",
			zap.String("path", path),
			zap.Int("samples", len(got)),
			zap.Int("dropped", dropped))
		samples = append(samples, got...)
	}
	return samples, nil
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}

// ReadCSV parses a labeled CSV stream and reports how many rows it dropped
func ReadCSV(r io.Reader) (samples []core.Sample, dropped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	labelCol := findColumn(header, labelColumns)
	textCol := findColumn(header, textColumns)
	subjectCol := findColumn(header, subjectColumns)
	if labelCol < 0 || (textCol < 0 && subjectCol < 0) {
		return nil, 0, fmt.Errorf("header %v lacks a label or message column", header)
	}

	field := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		text := field(row, textCol)
		if subject := field(row, subjectCol); subject != "" {
			text = strings.TrimSpace(subject + " " + text)
		}
		rawLabel := field(row, labelCol)
		if text == "" || rawLabel == "" {
			dropped++
			continue
		}
		label, err := core.ParseLabel(rawLabel)
		if err != nil {
			dropped++
			continue
		}
		samples = append(samples, core.Sample{Text: text, Label: label})
	}
	return samples, dropped, nil
}
