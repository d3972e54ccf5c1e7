// Package metrics records counters for munge runs and writes them in the
// node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors of one munge run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	RecordsIngested prometheus.Counter
	RecordsExported *prometheus.CounterVec
	RecordsSkipped  prometheus.Counter
	LemmaGroups     prometheus.Gauge
	ExportDuration  prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		RecordsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "munge_records_ingested_total",
				Help: "Source records fed into the dictionary.",
			},
		),
		RecordsExported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "munge_records_exported_total",
				Help: "Records written to the export, by kind.",
			},
			[]string{"kind"},
		),
		RecordsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "munge_records_skipped_total",
				Help: "Records left out of the export for having no definitions.",
			},
		),
		LemmaGroups: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "munge_lemma_groups",
				Help: "Lemma groups formed by the last export.",
			},
		),
		ExportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "munge_export_duration_seconds",
				Help:    "Time spent building an export.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
	}

	r.registry.MustRegister(
		r.RecordsIngested,
		r.RecordsExported,
		r.RecordsSkipped,
		r.LemmaGroups,
		r.ExportDuration,
	)
	return r
}

// ObserveExport records the outcome of one export.
func (r *Recorder) ObserveExport(entries, wordforms, skipped, groups int, took time.Duration) {
	r.RecordsExported.WithLabelValues("entry").Add(float64(entries))
	r.RecordsExported.WithLabelValues("wordform").Add(float64(wordforms))
	r.RecordsSkipped.Add(float64(skipped))
	r.LemmaGroups.Set(float64(groups))
	r.ExportDuration.Observe(took.Seconds())
}

// WriteTextfile writes every collector to path for the node-exporter
// textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
