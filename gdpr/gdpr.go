package gdpr

import (
	"context"
)

// Enforcer determines the privacy enforcement actions of every bidder taking part in a request.
type Enforcer interface {
	// Enforce resolves whether the request is in GDPR scope and, if so, the restrictions of each bidder.
	//
	// If the consent string was nonsensical, the returned error will be an ErrorMalformedConsent and the
	// result restricts every bidder.
	Enforce(ctx context.Context, req Request) (Result, error)
}

// Request is the input of a privacy enforcement evaluation.
type Request struct {
	Consent    string
	GDPRSignal Signal
	Country    string
	AccountID  string
	Bidders    []string
}

// Result holds the restrictions of each bidder of a request.
type Result struct {
	InScope            bool
	Country            string
	HostCookiesAllowed bool
	Actions            map[string]PrivacyEnforcementAction
}

// An ErrorMalformedConsent will be returned by the Enforcer interface if
// the consent string argument was the reason for the failure.
type ErrorMalformedConsent struct {
	Consent string
	Cause   error
}

func (e *ErrorMalformedConsent) Error() string {
	return "malformed consent string " + e.Consent + ": " + e.Cause.Error()
}

// AlwaysAllow is an Enforcer which never restricts anything. Exporting to allow for easy test setups
type AlwaysAllow struct{}

func (AlwaysAllow) Enforce(ctx context.Context, req Request) (Result, error) {
	return allowAllResult(req, false), nil
}

func allowAllResult(req Request, inScope bool) Result {
	return uniformResult(req, inScope, AllowAllActivities())
}

func restrictAllResult(req Request) Result {
	result := uniformResult(req, true, RestrictAll())
	result.HostCookiesAllowed = false
	return result
}

func uniformResult(req Request, inScope bool, action PrivacyEnforcementAction) Result {
	actions := make(map[string]PrivacyEnforcementAction, len(req.Bidders))
	for _, bidder := range req.Bidders {
		actions[bidder] = action
	}
	return Result{
		InScope:            inScope,
		Country:            req.Country,
		HostCookiesAllowed: true,
		Actions:            actions,
	}
}
