// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"

	OutcomeUnresolved = "unresolved"
	OutcomeClosed     = "closed"
	OutcomeCancelled  = "cancelled"
)

// Collector holds the sampler metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	samples  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	dials    *prometheus.CounterVec
	closes   *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		samples: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mbsampler_samples_total",
			Help: "The total number of sampler invocations",
		}, []string{"sampler", "kind", "outcome"}),

		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mbsampler_sample_duration_seconds",
			Help:    "Wall time of one sampler invocation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"kind"}),

		dials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mbsampler_dial_attempts_total",
			Help: "The total number of connection dial attempts",
		}, []string{"outcome"}),

		closes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mbsampler_deferred_closes_total",
			Help: "Deferred keep-alive closes by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveSample records one finished invocation.
func (c *Collector) ObserveSample(sampler, kind string, ok bool, d time.Duration) {
	if c == nil {
		return
	}
	outcome := OutcomeFailed
	if ok {
		outcome = OutcomeSuccess
	}
	c.samples.WithLabelValues(sampler, kind, outcome).Inc()
	c.duration.WithLabelValues(kind).Observe(d.Seconds())
}

func (c *Collector) IncDial(outcome string) {
	if c == nil {
		return
	}
	c.dials.WithLabelValues(outcome).Inc()
}

func (c *Collector) IncDeferredClose(outcome string) {
	if c == nil {
		return
	}
	c.closes.WithLabelValues(outcome).Inc()
}

// Samples returns the sample counter for one label set.
func (c *Collector) Samples(sampler, kind, outcome string) prometheus.Counter {
	return c.samples.WithLabelValues(sampler, kind, outcome)
}

func (c *Collector) Dials(outcome string) prometheus.Counter {
	return c.dials.WithLabelValues(outcome)
}

func (c *Collector) DeferredCloses(outcome string) prometheus.Counter {
	return c.closes.WithLabelValues(outcome)
}
