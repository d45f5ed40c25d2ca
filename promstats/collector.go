// Package promstats exports client Stats as Prometheus counters.
package promstats

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	resilient "github.com/egorkaBurkenya/resilient-rest"
)

// Collector reads the counters of one or more clients at scrape time.
// Each client is labelled with the name it was added under.
type Collector struct {
	requests    *prometheus.Desc
	errors      *prometheus.Desc
	rateLimited *prometheus.Desc

	mu      sync.RWMutex
	clients map[string]resilient.StatsProvider
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	labels := []string{"client"}
	return &Collector{
		requests: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "rest", "requests_total"),
			"Total number of REST dispatches, one per attempt",
			labels, nil),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "rest", "errors_total"),
			"Total number of failed fetch attempts",
			labels, nil),
		rateLimited: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "rest", "rate_limited_total"),
			"Total number of 429 responses",
			labels, nil),
		clients: make(map[string]resilient.StatsProvider),
	}
}

// Add registers p under name, replacing any provider with the same name.
func (c *Collector) Add(name string, p resilient.StatsProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[name] = p
}

// Remove stops reporting the provider registered under name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, name)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.errors
	ch <- c.rateLimited
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.clients))
	for name := range c.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	snapshots := make([]resilient.Stats, len(names))
	for i, name := range names {
		snapshots[i] = c.clients[name].Stats()
	}
	c.mu.RUnlock()

	for i, name := range names {
		s := snapshots[i]
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(s.TotalRequests), name)
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.TotalErrors), name)
		ch <- prometheus.MustNewConstMetric(c.rateLimited, prometheus.CounterValue, float64(s.RateLimited), name)
	}
}
