package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/c9s/isoforest/pkg/ensemble/iforest"
	"github.com/c9s/isoforest/pkg/metrics"
)

const defaultNotificationInterval = 10 * time.Minute

var log = logrus.WithField("component", "detector")

// Result is the outcome of scoring one sample.
type Result struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Anomaly bool    `json:"anomaly"`
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %.4f anomaly=%v", r.Name, r.Score, r.Anomaly)
}

// Detector fits an isolation forest on a batch of samples and labels query batches with it.
type Detector struct {
	Name                 string          `json:"name" yaml:"name"`
	Options              iforest.Options `json:"forest" yaml:"forest"`
	NotificationInterval time.Duration   `json:"notificationInterval" yaml:"notificationInterval"`

	forest                  *iforest.IsolationForest
	notificationRateLimiter *rate.Limiter
	logger                  logrus.FieldLogger
}

func New(name string, options iforest.Options) *Detector {
	d := &Detector{Name: name, Options: options}
	d.Defaults()
	return d
}

func (d *Detector) Defaults() {
	if d.Name == "" {
		d.Name = "default"
	}

	if d.NotificationInterval == 0 {
		d.NotificationInterval = defaultNotificationInterval
	}

	d.notificationRateLimiter = rate.NewLimiter(rate.Every(d.NotificationInterval), 1)
	d.logger = log.WithField("detector", d.Name)
}

// Forest returns the fitted forest, nil before Fit.
func (d *Detector) Forest() *iforest.IsolationForest {
	return d.forest
}

// Fit trains a fresh forest on the samples, replacing the previous one only on success.
func (d *Detector) Fit(ctx context.Context, samples []*iforest.Sample) error {
	forest, err := iforest.NewWithOptions(d.Options)
	if err != nil {
		return err
	}

	if err := forest.AddSamples(samples...); err != nil {
		return err
	}

	startTime := time.Now()
	if err := forest.BuildContext(ctx); err != nil {
		return errors.Wrapf(err, "detector %s: unable to fit isolation forest", d.Name)
	}

	duration := time.Since(startTime)
	metrics.UpdateBuildMetrics(d.Name, len(forest.Trees()), len(samples), duration)

	d.forest = forest
	d.logger.Infof("isolation forest fitted with %d samples and %d/%d trees in %s",
		len(samples), len(forest.Trees()), forest.NumTrees, duration)
	return nil
}

// Detect scores the samples and labels them with the forest's detection type.
func (d *Detector) Detect(samples []*iforest.Sample) ([]Result, error) {
	if d.forest == nil {
		return nil, iforest.ErrNotBuilt
	}

	scores, err := d.forest.ScoreAll(samples)
	if err != nil {
		return nil, errors.Wrapf(err, "detector %s", d.Name)
	}

	labels := d.forest.Label(scores)
	metrics.UpdateScoreMetrics(d.Name, scores, labels)

	results := make([]Result, len(samples))
	for i, sample := range samples {
		results[i] = Result{Name: sample.Name, Score: scores[i], Anomaly: labels[i] == 1}
		if results[i].Anomaly {
			d.notify(results[i])
		}
	}
	return results, nil
}

func (d *Detector) notify(result Result) {
	if !d.notificationRateLimiter.Allow() {
		d.logger.Debugf("anomaly notification suppressed: %s", result)
		return
	}

	d.logger.WithFields(logrus.Fields{
		"sample": result.Name,
		"score":  result.Score,
	}).Warnf("anomaly detected, score %f", result.Score)
}
