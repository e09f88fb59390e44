// Package metrics records per-run job statistics and exports them in the
// Prometheus text format for a node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the gauges for one job run. Each run owns a fresh registry
// so the exported file only ever describes the latest run.
type Recorder struct {
	reg *prometheus.Registry

	attempts    *prometheus.GaugeVec
	items       *prometheus.GaugeVec
	success     *prometheus.GaugeVec
	lastRun     *prometheus.GaugeVec
	runDuration *prometheus.GaugeVec
	failures    *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		attempts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rssfeeder_fetch_attempts",
			Help: "HTTP attempts made by the last run",
		}, []string{"feed"}),
		items: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rssfeeder_items",
			Help: "Items written to the output document by the last run",
		}, []string{"feed"}),
		success: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rssfeeder_last_run_success",
			Help: "1 if the last run completed, 0 otherwise",
		}, []string{"feed"}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rssfeeder_last_run_timestamp_seconds",
			Help: "Unix time at which the last run finished",
		}, []string{"feed"}),
		runDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rssfeeder_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}, []string{"feed"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rssfeeder_failures_total",
			Help: "Failed runs by stage",
		}, []string{"feed", "stage"}),
	}
}

func (r *Recorder) Attempts(feed string, n int) {
	r.attempts.WithLabelValues(feed).Set(float64(n))
}

func (r *Recorder) Items(feed string, n int) {
	r.items.WithLabelValues(feed).Set(float64(n))
}

// Failure marks the run as failed at stage (fetch, parse, write).
func (r *Recorder) Failure(feed, stage string) {
	r.failures.WithLabelValues(feed, stage).Inc()
}

// Finish stamps the run outcome and duration.
func (r *Recorder) Finish(feed string, ok bool, started, finished time.Time) {
	v := 0.0
	if ok {
		v = 1
	}
	r.success.WithLabelValues(feed).Set(v)
	r.lastRun.WithLabelValues(feed).Set(float64(finished.Unix()))
	r.runDuration.WithLabelValues(feed).Set(finished.Sub(started).Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// WriteFile exports the current values to path. The write goes through a
// temporary file, as the textfile collector expects.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
