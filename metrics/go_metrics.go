package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prebid/prebid-privacy-server/config"
	metrics "github.com/rcrowley/go-metrics"
)

// Metrics is the legacy go-metrics implementation of MetricsEngine.
type Metrics struct {
	MetricsRegistry            metrics.Registry
	ConnectionCounter          metrics.Counter
	ConnectionAcceptErrorMeter metrics.Meter
	ConnectionCloseErrorMeter  metrics.Meter

	RequestStatuses map[RequestType]map[RequestStatus]metrics.Meter
	RequestTimer    map[RequestType]metrics.Timer

	PrivacyTCFRequestVersion map[TCFVersionValue]metrics.Meter
	VendorListFetch          map[string]map[VendorListFetchStatus]metrics.Meter

	// Adapter names are only known at request time, so their meters are created on first use.
	adapterGDPRBlockedLock sync.RWMutex
	AdapterGDPRBlocked     map[string]metrics.Meter

	MetricsDisabled config.DisabledMetrics
}

// NewBlankMetrics creates a new Metrics object with all blank metrics object. This may also be useful for
// testing routines to ensure that no metrics are written anywhere.
func NewBlankMetrics(registry metrics.Registry, generations []string, disabledMetrics config.DisabledMetrics) *Metrics {
	blankMeter := &metrics.NilMeter{}
	newMetrics := &Metrics{
		MetricsRegistry:            registry,
		ConnectionCounter:          metrics.NilCounter{},
		ConnectionAcceptErrorMeter: blankMeter,
		ConnectionCloseErrorMeter:  blankMeter,
		RequestStatuses:            make(map[RequestType]map[RequestStatus]metrics.Meter),
		RequestTimer:               make(map[RequestType]metrics.Timer),
		PrivacyTCFRequestVersion:   make(map[TCFVersionValue]metrics.Meter, len(TCFVersions())),
		VendorListFetch:            make(map[string]map[VendorListFetchStatus]metrics.Meter, len(generations)),
		AdapterGDPRBlocked:         make(map[string]metrics.Meter),
		MetricsDisabled:            disabledMetrics,
	}

	for _, t := range RequestTypes() {
		newMetrics.RequestStatuses[t] = make(map[RequestStatus]metrics.Meter)
		for _, s := range RequestStatuses() {
			newMetrics.RequestStatuses[t][s] = blankMeter
		}
		newMetrics.RequestTimer[t] = &metrics.NilTimer{}
	}

	for _, v := range TCFVersions() {
		newMetrics.PrivacyTCFRequestVersion[v] = blankMeter
	}

	for _, g := range generations {
		newMetrics.VendorListFetch[g] = make(map[VendorListFetchStatus]metrics.Meter)
		for _, s := range VendorListFetchStatuses() {
			newMetrics.VendorListFetch[g][s] = blankMeter
		}
	}

	return newMetrics
}

// NewMetrics creates a new Metrics object with all metrics registered in the registry.
func NewMetrics(registry metrics.Registry, generations []string, disabledMetrics config.DisabledMetrics) *Metrics {
	newMetrics := NewBlankMetrics(registry, generations, disabledMetrics)
	newMetrics.ConnectionCounter = metrics.GetOrRegisterCounter("active_connections", registry)
	newMetrics.ConnectionAcceptErrorMeter = metrics.GetOrRegisterMeter("connection_accept_errors", registry)
	newMetrics.ConnectionCloseErrorMeter = metrics.GetOrRegisterMeter("connection_close_errors", registry)

	for _, t := range RequestTypes() {
		for _, s := range RequestStatuses() {
			newMetrics.RequestStatuses[t][s] = metrics.GetOrRegisterMeter(fmt.Sprintf("requests.%s.%s", string(s), string(t)), registry)
		}
		newMetrics.RequestTimer[t] = metrics.GetOrRegisterTimer(fmt.Sprintf("request_time.%s", string(t)), registry)
	}

	for _, v := range TCFVersions() {
		newMetrics.PrivacyTCFRequestVersion[v] = metrics.GetOrRegisterMeter(fmt.Sprintf("privacy.request.tcf.%s", string(v)), registry)
	}

	for _, g := range generations {
		for _, s := range VendorListFetchStatuses() {
			newMetrics.VendorListFetch[g][s] = metrics.GetOrRegisterMeter(fmt.Sprintf("vendorlist.%s.%s", g, string(s)), registry)
		}
	}

	return newMetrics
}

func (me *Metrics) RecordConnectionAccept(success bool) {
	if success {
		me.ConnectionCounter.Inc(1)
	} else {
		me.ConnectionAcceptErrorMeter.Mark(1)
	}
}

func (me *Metrics) RecordConnectionClose(success bool) {
	if success {
		me.ConnectionCounter.Dec(1)
	} else {
		me.ConnectionCloseErrorMeter.Mark(1)
	}
}

func (me *Metrics) RecordRequest(labels Labels) {
	if statuses, ok := me.RequestStatuses[labels.RType]; ok {
		if meter, ok := statuses[labels.RequestStatus]; ok {
			meter.Mark(1)
		}
	}
}

func (me *Metrics) RecordRequestTime(labels Labels, length time.Duration) {
	if labels.RequestStatus != RequestStatusOK {
		return
	}
	if timer, ok := me.RequestTimer[labels.RType]; ok {
		timer.Update(length)
	}
}

func (me *Metrics) RecordRequestPrivacy(privacy PrivacyLabels) {
	if !privacy.GDPREnforced {
		return
	}
	if meter, ok := me.PrivacyTCFRequestVersion[privacy.GDPRTCFVersion]; ok {
		meter.Mark(1)
	} else {
		me.PrivacyTCFRequestVersion[TCFVersionErr].Mark(1)
	}
}

func (me *Metrics) RecordAdapterGDPRRequestBlocked(adapterName string) {
	if me.MetricsDisabled.AdapterGDPRRequestBlocked {
		return
	}
	me.getAdapterGDPRBlockedMeter(adapterName).Mark(1)
}

func (me *Metrics) getAdapterGDPRBlockedMeter(adapterName string) metrics.Meter {
	me.adapterGDPRBlockedLock.RLock()
	meter, ok := me.AdapterGDPRBlocked[adapterName]
	me.adapterGDPRBlockedLock.RUnlock()
	if ok {
		return meter
	}

	me.adapterGDPRBlockedLock.Lock()
	defer me.adapterGDPRBlockedLock.Unlock()
	if meter, ok = me.AdapterGDPRBlocked[adapterName]; !ok {
		meter = metrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.gdpr_request_blocked", adapterName), me.MetricsRegistry)
		me.AdapterGDPRBlocked[adapterName] = meter
	}
	return meter
}

func (me *Metrics) RecordVendorListFetch(labels VendorListLabels) {
	statuses, ok := me.VendorListFetch[labels.Generation]
	if !ok {
		return
	}
	if meter, ok := statuses[labels.Status]; ok {
		meter.Mark(1)
	}
}
