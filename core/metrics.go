package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "balcconator"

type Metrics struct {
	Requests           *prometheus.CounterVec // labels: method, code
	Logins             *prometheus.CounterVec // label: result
	Registrations      prometheus.Counter
	DocumentsUploaded  prometheus.Counter
	DocumentsPublished prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg, unless reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	var factory = promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "registrations_total",
			Help:      "Accounts created by registration.",
		}),
		DocumentsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_uploaded_total",
			Help:      "Documents uploaded for review.",
		}),
		DocumentsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_published_total",
			Help:      "Documents moved from pending to public.",
		}),
	}
}
