package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mailguard/internal/core"
)

func TestObserveClassification(t *testing.T) {
	c := NewCollector(false)
	c.ObserveClassification(&core.ClassificationResult{
		Classification:  core.LabelSpam,
		ThreatLevel:     core.ThreatHigh,
		SpamProbability: 0.93,
		ProcessingTime:  2 * time.Millisecond,
	})
	c.ObserveClassification(&core.ClassificationResult{
		Classification:  core.LabelLegitimate,
		ThreatLevel:     core.ThreatLow,
		SpamProbability: 0.1,
	})
	c.ObserveClassification(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.classified.WithLabelValues("spam", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.classified.WithLabelValues("legitimate", "low")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.spamProbability))
}

func TestObserveTraining(t *testing.T) {
	c := NewCollector(false)
	c.ObserveTraining(&core.TrainingMetrics{Accuracy: 0.8, F1Score: 0.75, TrainingSize: 50, FeaturesCount: 321}, time.Second, nil)
	c.ObserveTraining(nil, time.Millisecond, core.InsufficientData("empty"))
	c.ObserveTraining(nil, time.Millisecond, errors.New("disk"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.trainingRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.trainingRuns.WithLabelValues("insufficient_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.trainingRuns.WithLabelValues("error")))
	assert.Equal(t, 0.8, testutil.ToFloat64(c.accuracy))
	assert.Equal(t, 50.0, testutil.ToFloat64(c.trainingSize))
	assert.Equal(t, 321.0, testutil.ToFloat64(c.features))
	assert.Greater(t, testutil.ToFloat64(c.lastTrained), 0.0)
}

func TestHandler(t *testing.T) {
	c := NewCollector(true)
	c.ObserveTraining(&core.TrainingMetrics{Accuracy: 1}, time.Second, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "mailguard_model_accuracy 1"))
	assert.Contains(t, body, "go_goroutines")
}
