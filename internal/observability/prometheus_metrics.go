package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route, method, and status label.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oj_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration records request durations by route and method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oj_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// JobsStartedTotal counts supervised jobs started, by kind and source.
	JobsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oj_job_started_total",
			Help: "Total number of supervised jobs started",
		},
		[]string{"kind", "source"},
	)
	// JobsProcessing is a gauge of jobs currently running, by kind.
	JobsProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oj_job_processing",
			Help: "Number of supervised jobs currently running",
		},
		[]string{"kind"},
	)
	// JobsCompletedTotal counts jobs that finished successfully, by kind and source.
	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oj_job_completed_total",
			Help: "Total number of supervised jobs completed",
		},
		[]string{"kind", "source"},
	)
	// JobsFailedTotal counts jobs that exited with an error, by kind and source.
	JobsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oj_job_failed_total",
			Help: "Total number of supervised jobs failed",
		},
		[]string{"kind", "source"},
	)
	// JobsTimedOutTotal counts jobs killed for exceeding their deadline, by kind and source.
	JobsTimedOutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oj_job_timed_out_total",
			Help: "Total number of supervised jobs timed out",
		},
		[]string{"kind", "source"},
	)
	// JobsCancelledTotal counts jobs cancelled by an operator, by kind and source.
	JobsCancelledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oj_job_cancelled_total",
			Help: "Total number of supervised jobs cancelled",
		},
		[]string{"kind", "source"},
	)

	// SimilarityQueryDuration records similarity search latency by query mode.
	SimilarityQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oj_similarity_query_duration_seconds",
			Help:    "Similarity search duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"mode"},
	)
)

// InitMetrics registers all Prometheus metrics with the default registry.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(JobsStartedTotal)
	prometheus.MustRegister(JobsProcessing)
	prometheus.MustRegister(JobsCompletedTotal)
	prometheus.MustRegister(JobsFailedTotal)
	prometheus.MustRegister(JobsTimedOutTotal)
	prometheus.MustRegister(JobsCancelledTotal)
	prometheus.MustRegister(SimilarityQueryDuration)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveSimilarityQuery records a similarity search's duration under mode
// ("by-problem" or "by-text").
func ObserveSimilarityQuery(mode string, dur time.Duration) {
	SimilarityQueryDuration.WithLabelValues(mode).Observe(dur.Seconds())
}

// JobMetrics implements supervisor.Metrics on top of the Prometheus
// counters and gauge declared above.
type JobMetrics struct{}

// JobStarted increments the started counter and the processing gauge.
func (JobMetrics) JobStarted(kind, source string) {
	JobsStartedTotal.WithLabelValues(kind, source).Inc()
	JobsProcessing.WithLabelValues(kind).Inc()
}

// JobFinished decrements the processing gauge and increments the counter
// matching the job's terminal status.
func (JobMetrics) JobFinished(kind, source string, status domain.JobStatus) {
	JobsProcessing.WithLabelValues(kind).Dec()
	switch status {
	case domain.JobCompleted:
		JobsCompletedTotal.WithLabelValues(kind, source).Inc()
	case domain.JobFailed:
		JobsFailedTotal.WithLabelValues(kind, source).Inc()
	case domain.JobTimedOut:
		JobsTimedOutTotal.WithLabelValues(kind, source).Inc()
	case domain.JobCancelled:
		JobsCancelledTotal.WithLabelValues(kind, source).Inc()
	}
}
