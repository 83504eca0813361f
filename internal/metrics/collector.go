package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects and exposes upload metrics
type Collector struct {
	registry      *prometheus.Registry
	filesTotal    *prometheus.CounterVec
	bytesTotal    prometheus.Counter
	presignTotal  *prometheus.CounterVec
	fileDuration  prometheus.Histogram
	batchDuration prometheus.Histogram
}

// New creates a new metrics collector with its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upload_files_total",
				Help: "Total number of files processed",
			},
			[]string{"status"},
		),
		bytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "upload_bytes_total",
				Help: "Total bytes uploaded",
			},
		),
		presignTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "presigned_urls_total",
				Help: "Total number of presigned URL generations",
			},
			[]string{"status"},
		),
		fileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "upload_file_duration_seconds",
				Help:    "Time taken to upload one file",
				Buckets: prometheus.DefBuckets,
			},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "upload_batch_duration_seconds",
				Help:    "Time taken to process a whole upload batch",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
	}

	// Register metrics
	c.registry.MustRegister(c.filesTotal)
	c.registry.MustRegister(c.bytesTotal)
	c.registry.MustRegister(c.presignTotal)
	c.registry.MustRegister(c.fileDuration)
	c.registry.MustRegister(c.batchDuration)

	return c
}

// IncSuccessWithBytes increments the success counter and adds the file size
func (c *Collector) IncSuccessWithBytes(bytes int64) {
	c.filesTotal.WithLabelValues("success").Inc()
	c.bytesTotal.Add(float64(bytes))
}

// IncFailed increments the failed file counter
func (c *Collector) IncFailed() {
	c.filesTotal.WithLabelValues("failed").Inc()
}

// IncPresignSuccess increments successful presigned URL generations
func (c *Collector) IncPresignSuccess() {
	c.presignTotal.WithLabelValues("success").Inc()
}

// IncPresignFailed increments failed presigned URL generations
func (c *Collector) IncPresignFailed() {
	c.presignTotal.WithLabelValues("failed").Inc()
}

// ObserveFileDuration observes a single file's upload duration
func (c *Collector) ObserveFileDuration(duration time.Duration) {
	c.fileDuration.Observe(duration.Seconds())
}

// ObserveBatchDuration observes a whole batch's duration
func (c *Collector) ObserveBatchDuration(duration time.Duration) {
	c.batchDuration.Observe(duration.Seconds())
}

// Handler returns the HTTP handler serving the metrics endpoint
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server
func (c *Collector) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return http.ListenAndServe(addr, mux)
}
