// Package metrics counts backend reads and auth events with prometheus
// collectors. There is no scrape endpoint; counters are written to a
// textfile on exit for node_exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Read outcomes
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

// Recorder is what views and the auth provider report to
type Recorder interface {
	RecordRead(collection, outcome string)
	RecordAuthEvent(event string)
}

// Collector is the prometheus implementation of Recorder.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry   *prometheus.Registry
	reads      *prometheus.CounterVec
	authEvents *prometheus.CounterVec
}

// NewCollector registers the ontask counters on a fresh registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ontask_backend_reads_total",
			Help: "Document store reads by collection and outcome",
		}, []string{"collection", "outcome"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ontask_auth_events_total",
			Help: "Sign-up, sign-in and sign-out events",
		}, []string{"event"}),
	}

	c.registry.MustRegister(c.reads, c.authEvents)
	return c
}

// RecordRead counts one read of collection
func (c *Collector) RecordRead(collection, outcome string) {
	if c == nil {
		return
	}
	c.reads.WithLabelValues(collection, outcome).Inc()
}

// RecordAuthEvent counts one auth event
func (c *Collector) RecordAuthEvent(event string) {
	if c == nil {
		return
	}
	c.authEvents.WithLabelValues(event).Inc()
}

// Gatherer exposes the registry
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes all counters to path in the text exposition format
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
