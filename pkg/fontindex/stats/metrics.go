package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fontindex"

// Report is what a store exposes to the metrics collector.
type Report struct {
	Stats    Snapshot
	Entries  int
	LastScan time.Time
}

// Collector exports the reports of registered stores as prometheus metrics,
// labelled by store name.
type Collector struct {
	mu      sync.Mutex
	sources map[string]func() Report

	cacheHits          *prometheus.Desc
	cacheMisses        *prometheus.Desc
	errors             *prometheus.Desc
	validationFailures *prometheus.Desc
	skipped            *prometheus.Desc
	buildSeconds       *prometheus.Desc
	entries            *prometheus.Desc
	lastScan           *prometheus.Desc
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	labels := []string{"store"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		sources:            make(map[string]func() Report),
		cacheHits:          desc("cache_hits", "Entries reused from the previous index in the last build"),
		cacheMisses:        desc("cache_misses", "Metadata extractions in the last build"),
		errors:             desc("unrecognized_files", "Files the extractor could not recognize in the last build"),
		validationFailures: desc("validation_failures", "Structurally invalid fonts in the last build"),
		skipped:            desc("known_skips", "Unchanged unindexable files skipped in the last build"),
		buildSeconds:       desc("build_duration_seconds", "Duration of the last build"),
		entries:            desc("entries", "Entries currently in the index"),
		lastScan:           desc("last_scan_timestamp_seconds", "Unix time of the last scan"),
	}
}

// Register adds a store. A later call with the same name replaces it.
func (c *Collector) Register(store string, report func() Report) {
	c.mu.Lock()
	c.sources[store] = report
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cacheHits
	ch <- c.cacheMisses
	ch <- c.errors
	ch <- c.validationFailures
	ch <- c.skipped
	ch <- c.buildSeconds
	ch <- c.entries
	ch <- c.lastScan
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sources := make(map[string]func() Report, len(c.sources))
	for k, v := range c.sources {
		sources[k] = v
	}
	c.mu.Unlock()
	sort.Strings(names)

	for _, name := range names {
		r := sources[name]()
		gauge := func(d *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, name)
		}
		gauge(c.cacheHits, float64(r.Stats.CacheHits))
		gauge(c.cacheMisses, float64(r.Stats.CacheMisses))
		gauge(c.errors, float64(r.Stats.Errors))
		gauge(c.validationFailures, float64(r.Stats.ValidationFailures))
		gauge(c.skipped, float64(r.Stats.Skipped))
		gauge(c.buildSeconds, r.Stats.Elapsed.Seconds())
		gauge(c.entries, float64(r.Entries))
		if !r.LastScan.IsZero() {
			gauge(c.lastScan, float64(r.LastScan.Unix()))
		}
	}
}

// WriteTextfile writes the collector's metrics in the node-exporter
// textfile format. The file is replaced atomically.
func WriteTextfile(path string, c *Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
