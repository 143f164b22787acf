package core

import (
	"fmt"
	"strings"
	"time"
)

// Algorithm and ModelVersion identify the classifier in results and model info
const (
	Algorithm    = "TF-IDF + Multinomial Naive Bayes"
	ModelVersion = "2.0"
)

// Label is the class assigned to a message
type Label string

const (
	LabelLegitimate Label = "legitimate"
	LabelSpam       Label = "spam"
)

// Labels lists the classes in their canonical order
var Labels = []Label{LabelLegitimate, LabelSpam}

// Valid reports whether l is one of the known classes
func (l Label) Valid() bool {
	return l == LabelLegitimate || l == LabelSpam
}

// ParseLabel maps dataset label spellings onto a Label
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spam", "phishing", "1":
		return LabelSpam, nil
	case "legitimate", "legit", "ham", "0":
		return LabelLegitimate, nil
	default:
		return "", fmt.Errorf("unknown label %q", s)
	}
}

// ThreatLevel buckets the spam probability
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "low"
	ThreatMedium ThreatLevel = "medium"
	ThreatHigh   ThreatLevel = "high"
)

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// Sample is one labeled corpus entry
type Sample struct {
	Text  string `json:"text" yaml:"text"`
	Label Label  `json:"label" yaml:"label"`
}

// ClassificationResult represents the verdict for a single message
type ClassificationResult struct {
	Classification  Label
	ThreatLevel     ThreatLevel
	Confidence      float64
	SpamProbability float64
	Keywords        []string
	ProcessingTime  time.Duration
	Algorithm       string
	ModelVersion    string
	ModelID         string
	Sender          string
	ProcessingID    string
	AnalyzedAt      time.Time
}

// IsSpam reports whether the verdict is spam
func (r *ClassificationResult) IsSpam() bool {
	return r.Classification == LabelSpam
}

// TrainingMetrics are computed on the held-out split of a training run
type TrainingMetrics struct {
	Accuracy      float64 `json:"accuracy"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1Score       float64 `json:"f1_score"`
	TrainingSize  int     `json:"training_size"`
	FeaturesCount int     `json:"features_count"`
}

// ModelInfo is a read-only view of the trained state
type ModelInfo struct {
	IsTrained        bool      `json:"is_trained"`
	TrainingAccuracy float64   `json:"training_accuracy"`
	TrainingSize     int       `json:"training_size"`
	FeaturesCount    int       `json:"features_count"`
	Algorithm        string    `json:"algorithm"`
	Version          string    `json:"version"`
	ModelID          string    `json:"model_id,omitempty"`
	TrainedAt        time.Time `json:"trained_at,omitempty"`
}
