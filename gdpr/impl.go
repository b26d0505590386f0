package gdpr

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/prebid/go-gdpr/api"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/metrics"
)

// This file implements the TCF2 enforcement flow of the app.
// Public APIs can be found in gdpr.go

// TCF2Service resolves the privacy enforcement actions of the bidders of a request.
type TCF2Service struct {
	cfg              config.GDPR
	accounts         map[string]*config.Account
	vendorIDs        map[string]uint16
	vendorLists      ConsentVendorLists
	metricsEngine    metrics.MetricsEngine
	tcf2ConfigReader TCF2ConfigBuilder
	purposeEnforcers []*PurposeEnforcer
}

// NewTCF2Service builds the enforcement service. vendorIDs maps bidder names to their GVL vendor ids.
func NewTCF2Service(cfg config.GDPR, accounts map[string]*config.Account, vendorIDs map[string]uint16, vendorLists ConsentVendorLists, metricsEngine metrics.MetricsEngine) *TCF2Service {
	return &TCF2Service{
		cfg:              cfg,
		accounts:         accounts,
		vendorIDs:        vendorIDs,
		vendorLists:      vendorLists,
		metricsEngine:    metricsEngine,
		tcf2ConfigReader: NewTCF2Config,
		purposeEnforcers: NewPurposeEnforcers(),
	}
}

// Enforce implements Enforcer.
func (s *TCF2Service) Enforce(ctx context.Context, req Request) (Result, error) {
	if !s.cfg.Enabled {
		return allowAllResult(req, false), nil
	}

	signal := SignalForCountry(req.GDPRSignal, req.Country, s.cfg.EEACountriesMap)
	signal = SignalNormalize(signal, s.cfg.DefaultValue)
	if signal == SignalNo {
		return allowAllResult(req, false), nil
	}

	tcf2Cfg := s.tcf2ConfigReader(s.cfg.TCF2, s.accountGDPR(req.AccountID))
	if !tcf2Cfg.IsEnabled() {
		return allowAllResult(req, true), nil
	}

	if req.Consent == "" {
		result := restrictAllResult(req)
		s.recordEnforcement(metrics.TCFVersionErr, result)
		return result, nil
	}

	consent, err := parseConsent(req.Consent)
	if err != nil {
		result := restrictAllResult(req)
		s.recordEnforcement(metrics.TCFVersionErr, result)
		return result, err
	}

	specVersion := getSpecVersion(consent.TCFPolicyVersion())
	if specVersion == 0 {
		result := restrictAllResult(req)
		s.recordEnforcement(metrics.TCFVersionErr, result)
		return result, &ErrorMalformedConsent{
			Consent: req.Consent,
			Cause:   fmt.Errorf("unsupported tcf policy version: %d", consent.TCFPolicyVersion()),
		}
	}

	vendorList, err := s.vendorLists.ForConsent(ctx, consent)
	if err != nil {
		glog.Warningf("Enforcing TCF2 without vendor list version %d: %v", consent.VendorListVersion(), err)
		vendorList = nil
	}

	result := Result{
		InScope:            true,
		Country:            req.Country,
		HostCookiesAllowed: s.hostCookiesAllowed(consent, tcf2Cfg, vendorList),
		Actions:            make(map[string]PrivacyEnforcementAction, len(req.Bidders)),
	}
	for _, permission := range s.evaluate(consent, tcf2Cfg, newVendorPermissions(req.Bidders, s.vendorIDs, vendorList)) {
		result.Actions[permission.Bidder] = permission.Action
	}

	s.recordEnforcement(metrics.TCFVersionToValue(int(specVersion)), result)
	return result, nil
}

// evaluate folds the working set through every purpose in ascending order and then special feature one.
func (s *TCF2Service) evaluate(consent ConsentString, cfg TCF2ConfigReader, workingSet []VendorPermission) []VendorPermission {
	for _, enforcer := range s.purposeEnforcers {
		if treated, ok := applyPurposeOneTreatment(consent, cfg, enforcer, workingSet); ok {
			workingSet = treated
			continue
		}
		workingSet = enforcer.Process(consent, cfg.PurposeConfig(enforcer.PurposeCode()), workingSet, true)
	}
	return enforceSpecialFeatureOne(consent, cfg, workingSet)
}

// hostCookiesAllowed determines whether the host company may read and write its own cookies. Host cookies are
// always allowed when no host vendor id is configured.
func (s *TCF2Service) hostCookiesAllowed(consent ConsentString, cfg TCF2ConfigReader, vendorList api.VendorList) bool {
	if s.cfg.HostVendorID == 0 {
		return true
	}

	hostID := uint16(s.cfg.HostVendorID)
	workingSet := []VendorPermission{{
		VendorID: hostID,
		Vendor:   vendorFor(vendorList, hostID),
		Action:   RestrictAll(),
	}}
	purposeOne := s.purposeEnforcers[0]
	if treated, ok := applyPurposeOneTreatment(consent, cfg, purposeOne, workingSet); ok {
		return SyncAllowed(treated[0].Action)
	}

	purposeCfg := cfg.PurposeConfig(purposeOne.PurposeCode())
	purposeCfg.VendorExceptions = nil
	workingSet = purposeOne.Process(consent, purposeCfg, workingSet, false)
	return SyncAllowed(workingSet[0].Action)
}

func (s *TCF2Service) accountGDPR(accountID string) config.AccountGDPR {
	if account, ok := s.accounts[accountID]; ok && account != nil {
		return account.GDPR
	}
	return config.AccountGDPR{}
}

func (s *TCF2Service) recordEnforcement(version metrics.TCFVersionValue, result Result) {
	s.metricsEngine.RecordRequestPrivacy(metrics.PrivacyLabels{
		GDPREnforced:   true,
		GDPRTCFVersion: version,
	})
	for bidder, action := range result.Actions {
		if action.BlockBidderRequest {
			s.metricsEngine.RecordAdapterGDPRRequestBlocked(bidder)
		}
	}
}
