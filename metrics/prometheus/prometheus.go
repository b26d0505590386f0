package prometheusmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/metrics"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine implementation.
type Metrics struct {
	Registry *prometheus.Registry

	// General Metrics
	connectionsClosed prometheus.Counter
	connectionsError  *prometheus.CounterVec
	connectionsOpened prometheus.Counter
	requests          *prometheus.CounterVec
	requestsTimer     *prometheus.HistogramVec
	privacyTCF        *prometheus.CounterVec
	vendorListFetches *prometheus.CounterVec

	// Adapter Metrics
	adapterGDPRBlockedRequests *prometheus.CounterVec

	metricsDisabled config.DisabledMetrics
}

const (
	adapterLabel         = "adapter"
	connectionErrorLabel = "connection_error"
	generationLabel      = "generation"
	requestStatusLabel   = "request_status"
	requestTypeLabel     = "request_type"
	sourceLabel          = "source"
	statusLabel          = "status"
	versionLabel         = "version"
)

const (
	sourceRequest = "request"

	connectionAcceptError = "accept"
	connectionCloseError  = "close"
)

// NewMetrics initializes a new Prometheus metrics instance with preloaded label values.
func NewMetrics(cfg config.PrometheusMetrics, disabledMetrics config.DisabledMetrics, generations []string) *Metrics {
	standardTimeBuckets := []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

	metrics := Metrics{}
	metrics.Registry = prometheus.NewRegistry()
	metrics.metricsDisabled = disabledMetrics

	metrics.connectionsClosed = newCounterWithoutLabels(cfg, metrics.Registry,
		"connections_closed",
		"Count of successful connections closed to Prebid Server.")

	metrics.connectionsError = newCounter(cfg, metrics.Registry,
		"connections_error",
		"Count of errors for connection open and close attempts to Prebid Server labeled by type.",
		[]string{connectionErrorLabel})

	metrics.connectionsOpened = newCounterWithoutLabels(cfg, metrics.Registry,
		"connections_opened",
		"Count of successful connections opened to Prebid Server.")

	metrics.requests = newCounter(cfg, metrics.Registry,
		"requests",
		"Count of total requests to Prebid Server labeled by type and status.",
		[]string{requestTypeLabel, requestStatusLabel})

	metrics.requestsTimer = newHistogramVec(cfg, metrics.Registry,
		"request_time_seconds",
		"Seconds to resolve successful Prebid Server requests labeled by type.",
		[]string{requestTypeLabel},
		standardTimeBuckets)

	metrics.privacyTCF = newCounter(cfg, metrics.Registry,
		"privacy_tcf",
		"Count of TCF versions for requests where GDPR was enforced labeled by version and source.",
		[]string{versionLabel, sourceLabel})

	metrics.vendorListFetches = newCounter(cfg, metrics.Registry,
		"vendorlist_fetches",
		"Count of vendor list lookups that missed the cache labeled by generation and status.",
		[]string{generationLabel, statusLabel})

	if !metrics.metricsDisabled.AdapterGDPRRequestBlocked {
		metrics.adapterGDPRBlockedRequests = newCounter(cfg, metrics.Registry,
			"adapter_gdpr_requests_blocked",
			"Count of total bidder requests blocked due to unsatisfied GDPR purpose 2 legal basis",
			[]string{adapterLabel})
	}

	preloadLabelValues(&metrics, generations)

	return &metrics
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counter)
	return counter
}

func newCounterWithoutLabels(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Counter {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounter(opts)
	registry.MustRegister(counter)
	return counter
}

func newHistogramVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogram)
	return histogram
}

func preloadLabelValues(m *Metrics, generations []string) {
	for _, e := range []string{connectionAcceptError, connectionCloseError} {
		m.connectionsError.With(prometheus.Labels{connectionErrorLabel: e})
	}

	for _, t := range metrics.RequestTypes() {
		for _, s := range metrics.RequestStatuses() {
			m.requests.With(prometheus.Labels{
				requestTypeLabel:   string(t),
				requestStatusLabel: string(s),
			})
		}
		m.requestsTimer.With(prometheus.Labels{
			requestTypeLabel: string(t),
		})
	}

	for _, v := range metrics.TCFVersions() {
		m.privacyTCF.With(prometheus.Labels{
			versionLabel: string(v),
			sourceLabel:  sourceRequest,
		})
	}

	for _, g := range generations {
		for _, s := range metrics.VendorListFetchStatuses() {
			m.vendorListFetches.With(prometheus.Labels{
				generationLabel: g,
				statusLabel:     string(s),
			})
		}
	}
}

func (m *Metrics) RecordConnectionAccept(success bool) {
	if success {
		m.connectionsOpened.Inc()
	} else {
		m.connectionsError.With(prometheus.Labels{
			connectionErrorLabel: connectionAcceptError,
		}).Inc()
	}
}

func (m *Metrics) RecordConnectionClose(success bool) {
	if success {
		m.connectionsClosed.Inc()
	} else {
		m.connectionsError.With(prometheus.Labels{
			connectionErrorLabel: connectionCloseError,
		}).Inc()
	}
}

func (m *Metrics) RecordRequest(labels metrics.Labels) {
	m.requests.With(prometheus.Labels{
		requestTypeLabel:   string(labels.RType),
		requestStatusLabel: string(labels.RequestStatus),
	}).Inc()
}

func (m *Metrics) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	if labels.RequestStatus == metrics.RequestStatusOK {
		m.requestsTimer.With(prometheus.Labels{
			requestTypeLabel: string(labels.RType),
		}).Observe(length.Seconds())
	}
}

func (m *Metrics) RecordRequestPrivacy(privacy metrics.PrivacyLabels) {
	if privacy.GDPREnforced {
		m.privacyTCF.With(prometheus.Labels{
			versionLabel: string(privacy.GDPRTCFVersion),
			sourceLabel:  sourceRequest,
		}).Inc()
	}
}

func (m *Metrics) RecordAdapterGDPRRequestBlocked(adapterName string) {
	if m.metricsDisabled.AdapterGDPRRequestBlocked {
		return
	}

	m.adapterGDPRBlockedRequests.With(prometheus.Labels{
		adapterLabel: adapterName,
	}).Inc()
}

func (m *Metrics) RecordVendorListFetch(labels metrics.VendorListLabels) {
	m.vendorListFetches.With(prometheus.Labels{
		generationLabel: labels.Generation,
		statusLabel:     string(labels.Status),
	}).Inc()
}
