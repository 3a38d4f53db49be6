package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Each instance
// carries its own registry so tests can build isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	RegistrationsCreated prometheus.Counter
	RegistrationsFailed  prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	DocumentsUploaded    prometheus.Counter
	DocumentBytes        prometheus.Counter
	CNPJLookups          *prometheus.CounterVec
	CEPLookups           *prometheus.CounterVec
	LoginFailures        prometheus.Counter
	ExcelExports         prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RegistrationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "credencia_registrations_created_total",
			Help: "Total number of professional registrations created",
		}),
		RegistrationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "credencia_registrations_failed_total",
			Help: "Total number of registration submissions rejected",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credencia_status_transitions_total",
			Help: "Status transitions applied by reviewers, labeled by target status",
		}, []string{"status"}),
		DocumentsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "credencia_documents_uploaded_total",
			Help: "Total number of supporting documents stored",
		}),
		DocumentBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "credencia_document_bytes_total",
			Help: "Total bytes of document content stored",
		}),
		CNPJLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credencia_cnpj_lookups_total",
			Help: "External company registry lookups, labeled by outcome status",
		}, []string{"status"}),
		CEPLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credencia_cep_lookups_total",
			Help: "Postal code lookups, labeled by outcome",
		}, []string{"outcome"}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "credencia_login_failures_total",
			Help: "Failed back office login attempts",
		}),
		ExcelExports: factory.NewCounter(prometheus.CounterOpts{
			Name: "credencia_excel_exports_total",
			Help: "Excel export downloads",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credencia_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
