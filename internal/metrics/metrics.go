// Package metrics declares the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Import pipeline
	ImportRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_import_requests_total",
			Help: "Total number of import requests",
		},
		[]string{"mode", "result"}, // mode: single, archive; result: success, partial, error
	)

	ImportFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_import_files_total",
			Help: "Total number of files seen by the import pipeline",
		},
		[]string{"result"}, // success, failure, skipped
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "activity_import_duration_seconds",
			Help:    "Duration of import requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActivitiesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_created_total",
			Help: "Total number of activities created",
		},
		[]string{"source"}, // gpx, manual
	)

	// Weather collaborator
	WeatherRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_requests_total",
			Help: "Total number of weather lookups",
		},
		[]string{"result"}, // success, failure, rejected
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveImport records one finished import request
func ObserveImport(mode, result string, started time.Time) {
	ImportRequests.WithLabelValues(mode, result).Inc()
	ImportDuration.Observe(time.Since(started).Seconds())
}
