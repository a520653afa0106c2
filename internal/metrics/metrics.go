// Package metrics provides Prometheus metrics for the Typeface client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API request metrics, labelled by client operation
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typeface_client_requests_total",
			Help: "Total number of API requests issued by the client",
		},
		[]string{"op", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "typeface_client_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Content transfer metrics
	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "typeface_client_bytes_uploaded_total",
			Help: "Total bytes uploaded",
		},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "typeface_client_bytes_downloaded_total",
			Help: "Total bytes of file content fetched",
		},
	)

	// Session metrics
	sessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typeface_session_transitions_total",
			Help: "Session state transitions",
		},
		[]string{"to"},
	)

	// Sink metrics
	sinkSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typeface_sink_saves_total",
			Help: "Downloads materialized through a sink",
		},
		[]string{"sink", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one API call. status is 0 for transport failures.
func RecordRequest(op string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(op, label).Inc()
	apiRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordUpload records uploaded bytes.
func RecordUpload(bytes int64) {
	bytesUploaded.Add(float64(bytes))
}

// RecordDownload records fetched bytes.
func RecordDownload(bytes int64) {
	bytesDownloaded.Add(float64(bytes))
}

// RecordSessionTransition records a move into the given session state.
func RecordSessionTransition(to string) {
	sessionTransitions.WithLabelValues(to).Inc()
}

// RecordSinkSave records a download written through a sink.
func RecordSinkSave(sink string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	sinkSavesTotal.WithLabelValues(sink, status).Inc()
}
