package config

import (
	"time"

	"github.com/golang/glog"
	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/metrics"
	prometheusmetrics "github.com/prebid/prebid-privacy-server/metrics/prometheus"
	gometrics "github.com/rcrowley/go-metrics"
	influxdb "github.com/vrischmann/go-metrics-influxdb"
)

// NewMetricsEngine reads the configuration and returns the appropriate metrics engine
// for this instance.
func NewMetricsEngine(cfg *config.Configuration, generations []string) *DetailedMetricsEngine {
	// Create a list of metrics engines to use.
	// Capacity of 2, as unlikely to have more than 2 metrics backends, and in the case
	// of 1 we won't use the list so it will be garbage collected.
	engineList := make(MultiMetricsEngine, 0, 2)
	returnEngine := DetailedMetricsEngine{}

	if cfg.Metrics.Influxdb.Host != "" {
		// Currently use go-metrics as the metrics piece for influx
		returnEngine.GoMetrics = metrics.NewMetrics(gometrics.NewPrefixedRegistry("prebidserver."), generations, cfg.Metrics.Disabled)
		engineList = append(engineList, returnEngine.GoMetrics)
	}

	if cfg.Metrics.Prometheus.Port != 0 {
		// Set up the Prometheus metrics.
		returnEngine.PrometheusMetrics = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus, cfg.Metrics.Disabled, generations)
		engineList = append(engineList, returnEngine.PrometheusMetrics)
	}

	// Now return the proper metrics engine
	if len(engineList) > 1 {
		returnEngine.MetricsEngine = &engineList
	} else if len(engineList) == 1 {
		returnEngine.MetricsEngine = engineList[0]
	} else {
		returnEngine.MetricsEngine = &DummyMetricsEngine{}
	}

	return &returnEngine
}

// DetailedMetricsEngine is a MultiMetricsEngine that preserves links to underlying metrics engines.
type DetailedMetricsEngine struct {
	metrics.MetricsEngine
	GoMetrics         *metrics.Metrics
	PrometheusMetrics *prometheusmetrics.Metrics
}

// StartInfluxReporting pushes the go-metrics registry to InfluxDB until the process exits.
// It does nothing if the go-metrics backend is not enabled.
func (me *DetailedMetricsEngine) StartInfluxReporting(cfg config.InfluxMetrics) {
	if me.GoMetrics == nil {
		return
	}
	glog.Infof("Reporting metrics to InfluxDB at %s every %d seconds", cfg.Host, cfg.MetricSendInterval)
	go influxdb.InfluxDB(
		me.GoMetrics.MetricsRegistry,                      // metrics registry
		time.Second*time.Duration(cfg.MetricSendInterval), // Configurable interval
		cfg.Host,            // the InfluxDB url
		cfg.Database,        // your InfluxDB database
		cfg.Measurement,     // your measurement
		cfg.Username,        // your InfluxDB user
		cfg.Password,        // your InfluxDB password
		cfg.AlignTimestamps, // align timestamps
	)
}

// MultiMetricsEngine logs metrics to multiple metrics databases The can be useful in transitioning
// an instance from one engine to another, you can run both in parallel to verify stats match up.
type MultiMetricsEngine []metrics.MetricsEngine

// RecordConnectionAccept across all engines
func (me *MultiMetricsEngine) RecordConnectionAccept(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionAccept(success)
	}
}

// RecordConnectionClose across all engines
func (me *MultiMetricsEngine) RecordConnectionClose(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionClose(success)
	}
}

// RecordRequest across all engines
func (me *MultiMetricsEngine) RecordRequest(labels metrics.Labels) {
	for _, thisME := range *me {
		thisME.RecordRequest(labels)
	}
}

// RecordRequestTime across all engines
func (me *MultiMetricsEngine) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordRequestTime(labels, length)
	}
}

// RecordRequestPrivacy across all engines
func (me *MultiMetricsEngine) RecordRequestPrivacy(privacy metrics.PrivacyLabels) {
	for _, thisME := range *me {
		thisME.RecordRequestPrivacy(privacy)
	}
}

// RecordAdapterGDPRRequestBlocked across all engines
func (me *MultiMetricsEngine) RecordAdapterGDPRRequestBlocked(adapterName string) {
	for _, thisME := range *me {
		thisME.RecordAdapterGDPRRequestBlocked(adapterName)
	}
}

// RecordVendorListFetch across all engines
func (me *MultiMetricsEngine) RecordVendorListFetch(labels metrics.VendorListLabels) {
	for _, thisME := range *me {
		thisME.RecordVendorListFetch(labels)
	}
}

// DummyMetricsEngine is a Noop metrics engine in case no metrics are configured. (may also be useful for tests)
type DummyMetricsEngine struct{}

// RecordConnectionAccept as a noop
func (me *DummyMetricsEngine) RecordConnectionAccept(success bool) {
}

// RecordConnectionClose as a noop
func (me *DummyMetricsEngine) RecordConnectionClose(success bool) {
}

// RecordRequest as a noop
func (me *DummyMetricsEngine) RecordRequest(labels metrics.Labels) {
}

// RecordRequestTime as a noop
func (me *DummyMetricsEngine) RecordRequestTime(labels metrics.Labels, length time.Duration) {
}

// RecordRequestPrivacy as a noop
func (me *DummyMetricsEngine) RecordRequestPrivacy(privacy metrics.PrivacyLabels) {
}

// RecordAdapterGDPRRequestBlocked as a noop
func (me *DummyMetricsEngine) RecordAdapterGDPRRequestBlocked(adapterName string) {
}

// RecordVendorListFetch as a noop
func (me *DummyMetricsEngine) RecordVendorListFetch(labels metrics.VendorListLabels) {
}
