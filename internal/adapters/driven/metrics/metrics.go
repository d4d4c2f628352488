// Package metrics records batch outcomes as Prometheus collectors.
//
// Collectors live in a private registry. Flush writes them to a
// node-exporter textfile when a path is configured; Handler serves them
// for scraping alongside the MCP HTTP transport.
package metrics

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

const namespace = "fedledger"

// Ensure Metrics implements the interface.
var _ driven.MetricsRecorder = (*Metrics)(nil)

// Metrics holds the batch collectors.
type Metrics struct {
	DocumentsTotal  *prometheus.CounterVec
	BatchesTotal    *prometheus.CounterVec
	BatchDuration   *prometheus.HistogramVec
	LastBatchTime   *prometheus.GaugeVec
	RecordsWritten  *prometheus.CounterVec
	FailuresByStage *prometheus.CounterVec

	registry *prometheus.Registry
	textfile string
	mu       sync.Mutex
}

// New creates and registers the collectors. textfile may be empty.
func New(textfile string) *Metrics {
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Documents seen by batches, by document type and outcome (processed, failed, skipped).",
			},
			[]string{"doc_type", "outcome"},
		),
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Batches run, by document type and mode (dry_run or write).",
			},
			[]string{"doc_type", "mode"},
		),
		BatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Wall-clock batch duration in seconds.",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"doc_type"},
		),
		LastBatchTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_batch_timestamp_seconds",
				Help:      "Unix time the last batch of a document type finished.",
			},
			[]string{"doc_type"},
		),
		RecordsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_written_total",
				Help:      "Validated records flushed to the sinks.",
			},
			[]string{"doc_type"},
		),
		FailuresByStage: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Per-document failures by the stage they reached.",
			},
			[]string{"doc_type", "stage"},
		),
		registry: prometheus.NewRegistry(),
		textfile: textfile,
	}

	m.registry.MustRegister(
		m.DocumentsTotal,
		m.BatchesTotal,
		m.BatchDuration,
		m.LastBatchTime,
		m.RecordsWritten,
		m.FailuresByStage,
	)
	return m
}

// ObserveBatch records one finished batch.
func (m *Metrics) ObserveBatch(result *domain.BatchResult) {
	if result == nil {
		return
	}
	docType := string(result.DocType)

	mode := "write"
	if result.DryRun {
		mode = "dry_run"
	}
	m.BatchesTotal.WithLabelValues(docType, mode).Inc()
	m.DocumentsTotal.WithLabelValues(docType, "processed").Add(float64(result.Processed))
	m.DocumentsTotal.WithLabelValues(docType, "failed").Add(float64(result.Failed))
	m.DocumentsTotal.WithLabelValues(docType, "skipped").Add(float64(result.Skipped))
	if !result.DryRun && len(result.OutputFiles) > 0 {
		m.RecordsWritten.WithLabelValues(docType).Add(float64(result.Validated))
	}
	for _, f := range result.Failures {
		m.FailuresByStage.WithLabelValues(docType, string(f.Stage)).Inc()
	}
	m.BatchDuration.WithLabelValues(docType).Observe(result.Duration().Seconds())
	if !result.FinishedAt.IsZero() {
		m.LastBatchTime.WithLabelValues(docType).Set(float64(result.FinishedAt.Unix()))
	}
}

// Flush writes the textfile, when configured.
func (m *Metrics) Flush() error {
	if m.textfile == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(m.textfile), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(m.textfile, m.registry)
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
