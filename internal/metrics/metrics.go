// Package metrics provides Prometheus collectors for the planner API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route labels use the gin route template, never the raw path.

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaadi_http_requests_total",
		Help: "Total number of HTTP requests, by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shaadi_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// WhatsAppMessagesTotal counts notification attempts by outcome.
	WhatsAppMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaadi_whatsapp_messages_total",
		Help: "Total number of WhatsApp messages attempted, by result (sent/failed).",
	}, []string{"result"})

	// WhatsAppSessions tracks live browser sessions.
	WhatsAppSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shaadi_whatsapp_sessions",
		Help: "Current number of WhatsApp browser sessions.",
	})

	// GuestsImportedTotal counts guests created from spreadsheet uploads.
	GuestsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shaadi_guests_imported_total",
		Help: "Total number of guests created by spreadsheet import.",
	})

	// ReportsGeneratedTotal counts rendered exports by kind and format.
	ReportsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shaadi_reports_generated_total",
		Help: "Total number of generated reports, by kind and format.",
	}, []string{"kind", "format"})
)

// ObserveRequest records one handled HTTP request.
func ObserveRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordMessage counts one WhatsApp send attempt.
func RecordMessage(ok bool) {
	if ok {
		WhatsAppMessagesTotal.WithLabelValues("sent").Inc()
		return
	}
	WhatsAppMessagesTotal.WithLabelValues("failed").Inc()
}

// RecordReport counts one generated export.
func RecordReport(kind, format string) {
	ReportsGeneratedTotal.WithLabelValues(kind, format).Inc()
}
