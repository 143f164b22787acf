// Package metrics exposes classifier activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikey/mailguard/internal/core"
)

const namespace = "mailguard"

// Collector implements core.MetricsRecorder on a private registry
type Collector struct {
	registry *prometheus.Registry

	classified      *prometheus.CounterVec
	spamProbability prometheus.Histogram
	classifyLatency prometheus.Histogram

	trainingRuns     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	accuracy         prometheus.Gauge
	f1               prometheus.Gauge
	trainingSize     prometheus.Gauge
	features         prometheus.Gauge
	lastTrained      prometheus.Gauge
}

// NewCollector creates and registers the metric set. Go runtime and process
// collectors are included when withRuntime is true.
func NewCollector(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classified_total",
			Help:      "Total number of classified messages",
		}, []string{"classification", "threat_level"}),
		spamProbability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "spam_probability",
			Help:      "Distribution of spam probabilities",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		classifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent classifying a message",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		trainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Total number of training runs",
		}, []string{"result"}),
		trainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Time spent in training runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		accuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_accuracy",
			Help:      "Held-out accuracy of the current model",
		}),
		f1: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_f1_score",
			Help:      "Held-out F1 score of the current model",
		}),
		trainingSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_training_size",
			Help:      "Number of corpus samples behind the current model",
		}),
		features: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_features",
			Help:      "Vocabulary size of the current model",
		}),
		lastTrained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_last_trained_timestamp_seconds",
			Help:      "Unix time of the last successful training run",
		}),
	}

	c.registry.MustRegister(
		c.classified,
		c.spamProbability,
		c.classifyLatency,
		c.trainingRuns,
		c.trainingDuration,
		c.accuracy,
		c.f1,
		c.trainingSize,
		c.features,
		c.lastTrained,
	)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// ObserveClassification implements core.MetricsRecorder
func (c *Collector) ObserveClassification(result *core.ClassificationResult) {
	if result == nil {
		return
	}
	c.classified.WithLabelValues(string(result.Classification), string(result.ThreatLevel)).Inc()
	c.spamProbability.Observe(result.SpamProbability)
	c.classifyLatency.Observe(result.ProcessingTime.Seconds())
}

// ObserveTraining implements core.MetricsRecorder
func (c *Collector) ObserveTraining(metrics *core.TrainingMetrics, duration time.Duration, err error) {
	c.trainingDuration.Observe(duration.Seconds())
	if err != nil || metrics == nil {
		c.trainingRuns.WithLabelValues(resultLabel(err)).Inc()
		return
	}
	c.trainingRuns.WithLabelValues("success").Inc()
	c.accuracy.Set(metrics.Accuracy)
	c.f1.Set(metrics.F1Score)
	c.trainingSize.Set(float64(metrics.TrainingSize))
	c.features.Set(float64(metrics.FeaturesCount))
	c.lastTrained.SetToCurrentTime()
}

func resultLabel(err error) string {
	switch core.KindOf(err) {
	case core.KindInsufficientData:
		return "insufficient_data"
	case "":
		return "error"
	default:
		return string(core.KindOf(err))
	}
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
