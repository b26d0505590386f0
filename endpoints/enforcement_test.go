package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/gdpr"
	"github.com/prebid/prebid-privacy-server/metrics"
	"github.com/prebid/prebid-privacy-server/privacy"
)

type mockEnforcer struct {
	result gdpr.Result
	err    error
	got    gdpr.Request
}

func (e *mockEnforcer) Enforce(_ context.Context, req gdpr.Request) (gdpr.Result, error) {
	e.got = req
	return e.result, e.err
}

func newMetricsMock(rtype metrics.RequestType, status metrics.RequestStatus) *metrics.MetricsEngineMock {
	labels := metrics.Labels{RType: rtype, RequestStatus: status}
	metricsEngine := &metrics.MetricsEngineMock{}
	metricsEngine.On("RecordRequest", labels).Return()
	metricsEngine.On("RecordRequestTime", labels, mock.Anything).Return()
	return metricsEngine
}

func doEnforcementRequest(enforcer gdpr.Enforcer, metricsEngine metrics.MetricsEngine, body string) *httptest.ResponseRecorder {
	endpoint := NewEnforcementEndpoint(enforcer, privacy.NewScrubber(config.Privacy{
		IPv4: config.IPMasking{AnonKeepBits: 24},
		IPv6: config.IPMasking{AnonKeepBits: 56},
	}), metricsEngine)

	request := httptest.NewRequest("POST", "/tcf2/enforcement", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	endpoint(recorder, request, nil)
	return recorder
}

func TestEnforcementBadInput(t *testing.T) {
	testCases := []struct {
		description  string
		body         string
		expectedBody string
	}{
		{
			description:  "malformed-json",
			body:         `{`,
			expectedBody: "JSON parsing failed",
		},
		{
			description:  "no-bidders",
			body:         `{"consent":"abc","gdpr":"1"}`,
			expectedBody: "request.bidders must contain at least one bidder",
		},
		{
			description:  "empty-bidder-name",
			body:         `{"gdpr":"1","bidders":["appnexus",""]}`,
			expectedBody: "request.bidders must not contain empty names",
		},
		{
			description:  "gdpr-object",
			body:         `{"gdpr":{},"bidders":["appnexus"]}`,
			expectedBody: "request.gdpr must be a string or a number",
		},
		{
			description:  "gdpr-out-of-range",
			body:         `{"gdpr":"2","bidders":["appnexus"]}`,
			expectedBody: "GDPR signal should be integer 0 or 1",
		},
	}

	for _, test := range testCases {
		metricsEngine := newMetricsMock(metrics.ReqTypeEnforcement, metrics.RequestStatusBadInput)
		enforcer := &mockEnforcer{}

		recorder := doEnforcementRequest(enforcer, metricsEngine, test.body)

		assert.Equal(t, http.StatusBadRequest, recorder.Code, test.description)
		assert.Contains(t, recorder.Body.String(), test.expectedBody, test.description)
		metricsEngine.AssertExpectations(t)
	}
}

func TestEnforcementBodyTooLarge(t *testing.T) {
	metricsEngine := newMetricsMock(metrics.ReqTypeEnforcement, metrics.RequestStatusBadInput)

	body := `{"bidders":["appnexus"],"consent":"` + strings.Repeat("A", maxEnforcementBodyBytes) + `"}`
	recorder := doEnforcementRequest(&mockEnforcer{}, metricsEngine, body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
	metricsEngine.AssertExpectations(t)
}

func TestEnforcementSignalForms(t *testing.T) {
	testCases := []struct {
		description    string
		body           string
		expectedSignal gdpr.Signal
	}{
		{
			description:    "string",
			body:           `{"gdpr":"1","bidders":["appnexus"]}`,
			expectedSignal: gdpr.SignalYes,
		},
		{
			description:    "number",
			body:           `{"gdpr":0,"bidders":["appnexus"]}`,
			expectedSignal: gdpr.SignalNo,
		},
		{
			description:    "null",
			body:           `{"gdpr":null,"bidders":["appnexus"]}`,
			expectedSignal: gdpr.SignalAmbiguous,
		},
		{
			description:    "missing",
			body:           `{"bidders":["appnexus"]}`,
			expectedSignal: gdpr.SignalAmbiguous,
		},
	}

	for _, test := range testCases {
		metricsEngine := newMetricsMock(metrics.ReqTypeEnforcement, metrics.RequestStatusOK)
		enforcer := &mockEnforcer{}

		recorder := doEnforcementRequest(enforcer, metricsEngine, test.body)

		assert.Equal(t, http.StatusOK, recorder.Code, test.description)
		assert.Equal(t, test.expectedSignal, enforcer.got.GDPRSignal, test.description)
	}
}

func TestEnforcementResponse(t *testing.T) {
	metricsEngine := newMetricsMock(metrics.ReqTypeEnforcement, metrics.RequestStatusOK)
	enforcer := &mockEnforcer{
		result: gdpr.Result{
			InScope:            true,
			Country:            "DE",
			HostCookiesAllowed: true,
			Actions: map[string]gdpr.PrivacyEnforcementAction{
				"appnexus": {RemoveUserIDs: true},
			},
		},
	}

	recorder := doEnforcementRequest(enforcer, metricsEngine,
		`{"consent":"CPfCRQAPfCRQAAAAAAENCgCAAOAAAAAAAAAAAQAAAAAEAIAAAAAAAAAA","gdpr":"1","country":"DE","account":"pub","bidders":["appnexus"]}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"inScope": true,
		"country": "DE",
		"hostCookiesAllowed": true,
		"bidders": {
			"appnexus": {
				"blockBidderRequest": false,
				"blockAnalyticsReport": false,
				"blockPixelSync": false,
				"removeUserIds": true,
				"removeUserFpd": false,
				"maskGeo": false,
				"maskDeviceIp": false,
				"maskDeviceInfo": false
			}
		}
	}`, recorder.Body.String())

	assert.Equal(t, gdpr.Request{
		Consent:    "CPfCRQAPfCRQAAAAAAENCgCAAOAAAAAAAAAAAQAAAAAEAIAAAAAAAAAA",
		GDPRSignal: gdpr.SignalYes,
		Country:    "DE",
		AccountID:  "pub",
		Bidders:    []string{"appnexus"},
	}, enforcer.got)
	metricsEngine.AssertExpectations(t)
}

func TestEnforcementMalformedConsent(t *testing.T) {
	metricsEngine := newMetricsMock(metrics.ReqTypeEnforcement, metrics.RequestStatusBadInput)
	enforcer := &mockEnforcer{
		result: gdpr.Result{
			InScope: true,
			Actions: map[string]gdpr.PrivacyEnforcementAction{"appnexus": gdpr.RestrictAll()},
		},
		err: &gdpr.ErrorMalformedConsent{Consent: "garbage", Cause: errors.New("bad")},
	}

	recorder := doEnforcementRequest(enforcer, metricsEngine,
		`{"consent":"garbage","gdpr":"1","bidders":["appnexus"],"bidRequest":{"id":"req"}}`)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp enforcementResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.InScope)
	assert.Equal(t, gdpr.RestrictAll(), resp.Bidders["appnexus"])
	assert.Equal(t, []string{"malformed consent string garbage: bad"}, resp.Errors)
	assert.Empty(t, resp.BidRequests, "blocked bidders get no bid request")
	metricsEngine.AssertExpectations(t)
}

func TestEnforcementFailure(t *testing.T) {
	metricsEngine := newMetricsMock(metrics.ReqTypeEnforcement, metrics.RequestStatusErr)
	enforcer := &mockEnforcer{err: errors.New("boom")}

	recorder := doEnforcementRequest(enforcer, metricsEngine, `{"gdpr":"1","bidders":["appnexus"]}`)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	metricsEngine.AssertExpectations(t)
}

func TestEnforcementScrubsBidRequests(t *testing.T) {
	metricsEngine := newMetricsMock(metrics.ReqTypeEnforcement, metrics.RequestStatusOK)
	enforcer := &mockEnforcer{
		result: gdpr.Result{
			InScope: true,
			Actions: map[string]gdpr.PrivacyEnforcementAction{
				"appnexus": {MaskDeviceIP: true, RemoveUserIDs: true},
				"rubicon":  {},
				"blocked":  {BlockBidderRequest: true},
			},
		},
	}

	recorder := doEnforcementRequest(enforcer, metricsEngine, `{
		"gdpr": "1",
		"bidders": ["appnexus", "rubicon", "blocked"],
		"bidRequest": {
			"id": "req",
			"device": {"ip": "1.2.3.4"},
			"user": {"id": "user", "buyeruid": "buyer"}
		}
	}`)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp enforcementResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	if assert.Len(t, resp.BidRequests, 2) {
		assert.Equal(t, &openrtb2.BidRequest{
			ID:     "req",
			Device: &openrtb2.Device{IP: "1.2.3.0"},
			User:   &openrtb2.User{},
		}, resp.BidRequests["appnexus"])
		assert.Equal(t, &openrtb2.BidRequest{
			ID:     "req",
			Device: &openrtb2.Device{IP: "1.2.3.4"},
			User:   &openrtb2.User{ID: "user", BuyerUID: "buyer"},
		}, resp.BidRequests["rubicon"])
	}
	assert.NotContains(t, resp.BidRequests, "blocked")
}
