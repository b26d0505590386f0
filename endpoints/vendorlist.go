package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/go-gdpr/api"
	"github.com/prebid/go-gdpr/consentconstants"

	"github.com/prebid/prebid-privacy-server/errortypes"
	"github.com/prebid/prebid-privacy-server/gdpr"
	"github.com/prebid/prebid-privacy-server/metrics"
)

const (
	maxPurpose        = 10
	maxSpecialFeature = 2
)

// vendorListResponse reports the list that was actually served. Fallback is set when the store couldn't
// provide the requested version and served its fallback list instead.
type vendorListResponse struct {
	Generation        string                       `json:"generation"`
	RequestedVersion  int                          `json:"requestedVersion"`
	VendorListVersion int                          `json:"vendorListVersion"`
	Fallback          bool                         `json:"fallback"`
	Vendors           map[string]vendorDeclaration `json:"vendors,omitempty"`
}

type vendorDeclaration struct {
	Purposes        []int `json:"purposes"`
	LegIntPurposes  []int `json:"legIntPurposes"`
	SpecialFeatures []int `json:"specialFeatures"`
}

// NewVendorListEndpoint implements GET /vendorlist/:generation/:version. It resolves a vendor list version
// through the store, fetching it if it isn't cached yet. The optional vendors query parameter takes a comma
// separated list of vendor ids whose declarations are included in the response.
func NewVendorListEndpoint(stores map[string]gdpr.VendorListFetcher, metricsEngine metrics.MetricsEngine) httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		start := time.Now()
		labels := metrics.Labels{
			RType:         metrics.ReqTypeVendorList,
			RequestStatus: metrics.RequestStatusOK,
		}
		defer func() {
			metricsEngine.RecordRequest(labels)
			metricsEngine.RecordRequestTime(labels, time.Since(start))
		}()

		generation := params.ByName("generation")
		store, ok := stores[generation]
		if !ok {
			labels.RequestStatus = metrics.RequestStatusBadInput
			http.Error(w, fmt.Sprintf("Unknown vendor list generation: %s", generation), http.StatusNotFound)
			return
		}

		version, err := strconv.Atoi(params.ByName("version"))
		if err != nil {
			labels.RequestStatus = metrics.RequestStatusBadInput
			http.Error(w, fmt.Sprintf("Vendor list version must be an integer: %s", params.ByName("version")), http.StatusBadRequest)
			return
		}

		vendorIDs, err := parseVendorIDs(r.URL.Query().Get("vendors"))
		if err != nil {
			labels.RequestStatus = metrics.RequestStatusBadInput
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		list, err := store.ForVersion(r.Context(), version)
		if err != nil {
			status := vendorListErrorStatus(err)
			if status == http.StatusBadRequest {
				labels.RequestStatus = metrics.RequestStatusBadInput
			} else {
				labels.RequestStatus = metrics.RequestStatusErr
			}
			http.Error(w, err.Error(), status)
			return
		}

		if list == nil {
			labels.RequestStatus = metrics.RequestStatusErr
			http.Error(w, fmt.Sprintf("No %s vendor list available for version %d", generation, version), http.StatusServiceUnavailable)
			return
		}

		served := int(list.Version())
		if served != version {
			glog.Warningf("/vendorlist served %s version %d in place of %d", generation, served, version)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(vendorListResponse{
			Generation:        generation,
			RequestedVersion:  version,
			VendorListVersion: served,
			Fallback:          served != version,
			Vendors:           describeVendors(list, vendorIDs),
		}); err != nil {
			glog.Errorf("/vendorlist failed to write response: %v", err)
		}
	})
}

func parseVendorIDs(param string) ([]uint16, error) {
	if param == "" {
		return nil, nil
	}
	ids := strings.Split(param, ",")
	vendorIDs := make([]uint16, 0, len(ids))
	for _, id := range ids {
		vendorID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 16)
		if err != nil || vendorID == 0 {
			return nil, fmt.Errorf("Vendor id must be an integer between 1 and 65535: %s", id)
		}
		vendorIDs = append(vendorIDs, uint16(vendorID))
	}
	return vendorIDs, nil
}

// describeVendors lists the strict declarations of the requested vendors. Vendors the list doesn't declare
// are left out.
func describeVendors(list api.VendorList, vendorIDs []uint16) map[string]vendorDeclaration {
	if len(vendorIDs) == 0 {
		return nil
	}
	declarations := make(map[string]vendorDeclaration, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		vendor := list.Vendor(vendorID)
		if vendor == nil {
			continue
		}
		declaration := vendorDeclaration{
			Purposes:        []int{},
			LegIntPurposes:  []int{},
			SpecialFeatures: []int{},
		}
		for purpose := 1; purpose <= maxPurpose; purpose++ {
			if vendor.PurposeStrict(consentconstants.Purpose(purpose)) {
				declaration.Purposes = append(declaration.Purposes, purpose)
			}
			if vendor.LegitimateInterestStrict(consentconstants.Purpose(purpose)) {
				declaration.LegIntPurposes = append(declaration.LegIntPurposes, purpose)
			}
		}
		for feature := 1; feature <= maxSpecialFeature; feature++ {
			if vendor.SpecialFeature(consentconstants.SpecialFeature(feature)) {
				declaration.SpecialFeatures = append(declaration.SpecialFeatures, feature)
			}
		}
		declarations[strconv.Itoa(int(vendorID))] = declaration
	}
	return declarations
}

func vendorListErrorStatus(err error) int {
	switch errortypes.ReadCode(err) {
	case errortypes.BadInputErrorCode:
		return http.StatusBadRequest
	case errortypes.VendorListNotFetchedWarningCode:
		return http.StatusServiceUnavailable
	case errortypes.TimeoutErrorCode:
		return http.StatusGatewayTimeout
	case errortypes.BadServerResponseErrorCode:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
