package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var BuildDurationMetrics = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "isoforest_build_duration_seconds",
		Help:    "time spent building an isolation forest",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"detector"})

var TreeCountMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "isoforest_trees",
		Help: "number of trees of the last built forest",
	}, []string{"detector"})

var TrainingSamplesMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "isoforest_training_samples",
		Help: "number of samples the last forest was trained on",
	}, []string{"detector"})

var ScoredSamplesMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "isoforest_scored_samples_total",
		Help: "number of scored samples",
	}, []string{"detector"})

var AnomaliesMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "isoforest_anomalies_total",
		Help: "number of samples labelled as anomalies",
	}, []string{"detector"})

var ScoreMetrics = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "isoforest_score",
		Help:    "distribution of anomaly scores",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	}, []string{"detector"})

func UpdateBuildMetrics(detector string, trees, samples int, duration time.Duration) {
	labels := prometheus.Labels{"detector": detector}
	BuildDurationMetrics.With(labels).Observe(duration.Seconds())
	TreeCountMetrics.With(labels).Set(float64(trees))
	TrainingSamplesMetrics.With(labels).Set(float64(samples))
}

// UpdateScoreMetrics records a scored batch; labels[i] is 1 for anomalies.
func UpdateScoreMetrics(detector string, scores []float64, labels []int) {
	l := prometheus.Labels{"detector": detector}
	histogram := ScoreMetrics.With(l)
	for _, score := range scores {
		histogram.Observe(score)
	}

	anomalies := 0
	for _, label := range labels {
		anomalies += label
	}

	ScoredSamplesMetrics.With(l).Add(float64(len(scores)))
	AnomaliesMetrics.With(l).Add(float64(anomalies))
}

func init() {
	prometheus.MustRegister(
		BuildDurationMetrics,
		TreeCountMetrics,
		TrainingSamplesMetrics,
		ScoredSamplesMetrics,
		AnomaliesMetrics,
		ScoreMetrics,
	)
}
