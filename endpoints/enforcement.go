package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-privacy-server/gdpr"
	"github.com/prebid/prebid-privacy-server/metrics"
	"github.com/prebid/prebid-privacy-server/privacy"
)

// maxEnforcementBodyBytes caps the request body, bid request included.
const maxEnforcementBodyBytes = 512 * 1024

// NewEnforcementEndpoint implements POST /tcf2/enforcement. It resolves the privacy enforcement action of every
// bidder in the request and, when a bid request is supplied, the copy of it each bidder may receive.
func NewEnforcementEndpoint(enforcer gdpr.Enforcer, scrubber privacy.Scrubber, metricsEngine metrics.MetricsEngine) httprouter.Handle {
	deps := &enforcementDeps{
		enforcer: enforcer,
		scrubber: scrubber,
		metrics:  metricsEngine,
	}
	return deps.Endpoint
}

type enforcementDeps struct {
	enforcer gdpr.Enforcer
	scrubber privacy.Scrubber
	metrics  metrics.MetricsEngine
}

type enforcementRequest struct {
	Consent    string               `json:"consent"`
	GDPR       string               `json:"-"`
	Country    string               `json:"country"`
	Account    string               `json:"account"`
	Bidders    []string             `json:"bidders"`
	BidRequest *openrtb2.BidRequest `json:"bidRequest,omitempty"`
}

type enforcementResponse struct {
	InScope            bool                                     `json:"inScope"`
	Country            string                                   `json:"country,omitempty"`
	HostCookiesAllowed bool                                     `json:"hostCookiesAllowed"`
	Bidders            map[string]gdpr.PrivacyEnforcementAction `json:"bidders"`
	BidRequests        map[string]*openrtb2.BidRequest          `json:"bidRequests,omitempty"`
	Errors             []string                                 `json:"errors,omitempty"`
}

func (deps *enforcementDeps) Endpoint(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	labels := metrics.Labels{
		RType:         metrics.ReqTypeEnforcement,
		RequestStatus: metrics.RequestStatusOK,
	}
	defer func() {
		deps.metrics.RecordRequest(labels)
		deps.metrics.RecordRequestTime(labels, time.Since(start))
	}()

	defer r.Body.Close()
	bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxEnforcementBodyBytes+1))
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusBadInput
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if len(bodyBytes) > maxEnforcementBodyBytes {
		labels.RequestStatus = metrics.RequestStatusBadInput
		http.Error(w, fmt.Sprintf("Request body exceeds %d bytes", maxEnforcementBodyBytes), http.StatusRequestEntityTooLarge)
		return
	}

	req, err := parseEnforcementRequest(bodyBytes)
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusBadInput
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	signal, err := gdpr.SignalParse(req.GDPR)
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusBadInput
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := deps.enforcer.Enforce(r.Context(), gdpr.Request{
		Consent:    req.Consent,
		GDPRSignal: signal,
		Country:    req.Country,
		AccountID:  req.Account,
		Bidders:    req.Bidders,
	})

	resp := enforcementResponse{
		InScope:            result.InScope,
		Country:            result.Country,
		HostCookiesAllowed: result.HostCookiesAllowed,
		Bidders:            result.Actions,
	}
	if err != nil {
		var malformed *gdpr.ErrorMalformedConsent
		if !errors.As(err, &malformed) {
			glog.Errorf("/tcf2/enforcement failed for account %q: %v", req.Account, err)
			labels.RequestStatus = metrics.RequestStatusErr
			http.Error(w, "Privacy enforcement failed", http.StatusInternalServerError)
			return
		}
		labels.RequestStatus = metrics.RequestStatusBadInput
		resp.Errors = append(resp.Errors, err.Error())
	}

	if req.BidRequest != nil {
		resp.BidRequests = make(map[string]*openrtb2.BidRequest, len(result.Actions))
		for bidder, action := range result.Actions {
			if scrubbed := deps.scrubber.ScrubRequest(req.BidRequest, action); scrubbed != nil {
				resp.BidRequests[bidder] = scrubbed
			}
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		glog.Errorf("/tcf2/enforcement failed to write response: %v", err)
	}
}

func parseEnforcementRequest(bodyBytes []byte) (*enforcementRequest, error) {
	req := &enforcementRequest{}
	if err := json.Unmarshal(bodyBytes, req); err != nil {
		return nil, fmt.Errorf("JSON parsing failed: %s", err.Error())
	}

	signal, err := parseGDPRSignal(bodyBytes)
	if err != nil {
		return nil, err
	}
	req.GDPR = signal

	if len(req.Bidders) == 0 {
		return nil, errors.New("request.bidders must contain at least one bidder")
	}
	for _, bidder := range req.Bidders {
		if bidder == "" {
			return nil, errors.New("request.bidders must not contain empty names")
		}
	}
	return req, nil
}

// parseGDPRSignal accepts the gdpr field as either a string or a number.
func parseGDPRSignal(request []byte) (string, error) {
	value, valueType, _, err := jsonparser.Get(request, "gdpr")
	if err == jsonparser.KeyPathNotFoundError {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("Failed to read request.gdpr: %v", err)
	}

	switch valueType {
	case jsonparser.String, jsonparser.Number:
		return string(value), nil
	case jsonparser.Null:
		return "", nil
	}
	return "", errors.New("request.gdpr must be a string or a number")
}
