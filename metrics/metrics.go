package metrics

import (
	"time"
)

// Labels defines the labels that can be attached to the request metrics.
type Labels struct {
	RType         RequestType
	RequestStatus RequestStatus
}

// PrivacyLabels defines metrics describing the result of privacy enforcement.
type PrivacyLabels struct {
	GDPREnforced   bool
	GDPRTCFVersion TCFVersionValue
}

// VendorListLabels defines metrics describing the outcome of a vendor list lookup that missed the cache.
type VendorListLabels struct {
	Generation string
	Status     VendorListFetchStatus
}

// RequestType : Request type enumeration
type RequestType string

// The request types
const (
	ReqTypeEnforcement RequestType = "enforcement"
	ReqTypeVendorList  RequestType = "vendorlist"
)

// RequestTypes returns all possible values for RequestType
func RequestTypes() []RequestType {
	return []RequestType{
		ReqTypeEnforcement,
		ReqTypeVendorList,
	}
}

// RequestStatus : The request return status
type RequestStatus string

// Request/return status
const (
	RequestStatusOK       RequestStatus = "ok"
	RequestStatusBadInput RequestStatus = "badinput"
	RequestStatusErr      RequestStatus = "err"
)

// RequestStatuses returns all possible values for RequestStatus
func RequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusOK,
		RequestStatusBadInput,
		RequestStatusErr,
	}
}

// TCFVersionValue : The possible values for TCF versions
type TCFVersionValue string

const (
	TCFVersionErr TCFVersionValue = "err"
	TCFVersionV2  TCFVersionValue = "v2"
	TCFVersionV3  TCFVersionValue = "v3"
)

// TCFVersions returns the possible values for the TCF version
func TCFVersions() []TCFVersionValue {
	return []TCFVersionValue{
		TCFVersionErr,
		TCFVersionV2,
		TCFVersionV3,
	}
}

// TCFVersionToValue takes an integer GVL specification version and returns the corresponding TCFVersionValue
func TCFVersionToValue(version int) TCFVersionValue {
	switch version {
	case 2:
		return TCFVersionV2
	case 3:
		return TCFVersionV3
	}
	return TCFVersionErr
}

// VendorListFetchStatus is the outcome of serving a vendor list version that was not cached.
type VendorListFetchStatus string

const (
	VendorListOK       VendorListFetchStatus = "ok"
	VendorListMissing  VendorListFetchStatus = "missing"
	VendorListError    VendorListFetchStatus = "error"
	VendorListFallback VendorListFetchStatus = "fallback"
)

// VendorListFetchStatuses returns all possible values for VendorListFetchStatus
func VendorListFetchStatuses() []VendorListFetchStatus {
	return []VendorListFetchStatus{
		VendorListOK,
		VendorListMissing,
		VendorListError,
		VendorListFallback,
	}
}

// MetricsEngine is a generic interface to record metrics into the desired backend.
// The first three metrics function fire off once per incoming request, so total metrics
// will equal the total number of incoming requests. Implementations must be safe for concurrent use.
type MetricsEngine interface {
	RecordConnectionAccept(success bool)
	RecordConnectionClose(success bool)
	RecordRequest(labels Labels)
	RecordRequestTime(labels Labels, length time.Duration)
	RecordRequestPrivacy(privacy PrivacyLabels)
	RecordAdapterGDPRRequestBlocked(adapterName string)
	RecordVendorListFetch(labels VendorListLabels)
}
