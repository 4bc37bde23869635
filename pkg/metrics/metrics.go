package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	punkPinner = "punk_pinner"

	uploadsTotal        = "uploads_total"
	uploadAttemptsTotal = "upload_attempts_total"
	rateLimitHitsTotal  = "rate_limit_hits_total"
	JobStatusCount      = "job_status_count"

	// Labels
	backendLabel   = "backend"
	outcomeLabel   = "outcome"
	kindLabel      = "kind"
	jobStatusLabel = "status"
)

// Upload kinds
const (
	KindImage    = "image"
	KindMetadata = "metadata"
	KindManifest = "manifest"
)

var uploadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: punkPinner,
		Name:      uploadsTotal,
		Help:      "number of finished uploads partitioned by backend, kind and outcome",
	},
	[]string{backendLabel, kindLabel, outcomeLabel},
)

var uploadAttemptsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: punkPinner,
		Name:      uploadAttemptsTotal,
		Help:      "number of calls made to the pinning backend, retries included",
	},
	[]string{backendLabel},
)

var rateLimitHitsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: punkPinner,
		Name:      rateLimitHitsTotal,
		Help:      "number of rate limited responses returned by the pinning backend",
	},
	[]string{backendLabel},
)

var jobStatusCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: punkPinner,
		Name:      JobStatusCount,
		Help:      "metrics to record the number of registered jobs in each status",
	},
	[]string{jobStatusLabel},
)

func IncreaseUploadsTotalMetric(backend, kind, outcome string) {
	uploadsTotalMetric.With(prometheus.Labels{
		backendLabel: backend,
		kindLabel:    kind,
		outcomeLabel: outcome,
	}).Inc()
}

func AddUploadAttemptsMetric(backend string, attempts int) {
	uploadAttemptsTotalMetric.With(prometheus.Labels{backendLabel: backend}).Add(float64(attempts))
}

func IncreaseRateLimitHitsMetric(backend string) {
	rateLimitHitsTotalMetric.With(prometheus.Labels{backendLabel: backend}).Inc()
}

func UpdateJobStatusMetric(status string, count int) {
	jobStatusCountMetric.With(prometheus.Labels{jobStatusLabel: status}).Set(float64(count))
}

type PrometheusMetricsHandler struct {
	gatherer prometheus.Gatherer
}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{gatherer: prometheus.DefaultGatherer}
}

func (p *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(uploadsTotalMetric)
	prometheus.MustRegister(uploadAttemptsTotalMetric)
	prometheus.MustRegister(rateLimitHitsTotalMetric)
	prometheus.MustRegister(jobStatusCountMetric)
}
