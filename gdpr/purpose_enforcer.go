package gdpr

import (
	"github.com/prebid/go-gdpr/consentconstants"

	"github.com/prebid/prebid-privacy-server/config"
)

const (
	purposeStorageAccess      consentconstants.Purpose        = 1
	purposeBasicAds           consentconstants.Purpose        = 2
	purposePersonalizedAds    consentconstants.Purpose        = 4
	purposeMeasureAds         consentconstants.Purpose        = 7
	purposeDevelopAndImprove  consentconstants.Purpose        = 10
	specialFeatureGeolocation consentconstants.SpecialFeature = 1
)

// PurposeConfig is the resolved enforcement configuration of a single purpose.
type PurposeConfig struct {
	EnforceAlgo      config.TCF2EnforcementAlgo
	EnforceVendors   bool
	VendorExceptions map[string]struct{}
}

func (pc PurposeConfig) vendorException(bidder string) bool {
	_, found := pc.VendorExceptions[bidder]
	return found
}

type actionModifier func(action *PrivacyEnforcementAction)

// purposeDefinition lists the restrictions a purpose owns for each legal basis.
type purposeDefinition struct {
	purpose        consentconstants.Purpose
	allow          actionModifier
	allowNaturally actionModifier
}

func noRestrictions(*PrivacyEnforcementAction) {}

var purposeTable = []purposeDefinition{
	{
		purpose:        purposeStorageAccess,
		allow:          func(a *PrivacyEnforcementAction) { a.BlockPixelSync = false },
		allowNaturally: func(a *PrivacyEnforcementAction) { a.BlockPixelSync = false },
	},
	{
		purpose:        purposeBasicAds,
		allow:          func(a *PrivacyEnforcementAction) { a.BlockBidderRequest = false },
		allowNaturally: func(a *PrivacyEnforcementAction) { a.BlockBidderRequest = false },
	},
	{purpose: 3, allow: noRestrictions, allowNaturally: noRestrictions},
	{
		purpose: purposePersonalizedAds,
		allow: func(a *PrivacyEnforcementAction) {
			a.RemoveUserIDs = false
			a.RemoveUserFPD = false
			a.MaskDeviceInfo = false
		},
		allowNaturally: func(a *PrivacyEnforcementAction) { a.RemoveUserIDs = false },
	},
	{purpose: 5, allow: noRestrictions, allowNaturally: noRestrictions},
	{purpose: 6, allow: noRestrictions, allowNaturally: noRestrictions},
	{
		purpose:        purposeMeasureAds,
		allow:          func(a *PrivacyEnforcementAction) { a.BlockAnalyticsReport = false },
		allowNaturally: func(a *PrivacyEnforcementAction) { a.BlockAnalyticsReport = false },
	},
	{purpose: 8, allow: noRestrictions, allowNaturally: noRestrictions},
	{purpose: 9, allow: noRestrictions, allowNaturally: noRestrictions},
	{purpose: purposeDevelopAndImprove, allow: noRestrictions, allowNaturally: noRestrictions},
}

// legitInterestBasis reports whether legitimate interest may establish legal basis for the purpose.
// Storage and access of information requires consent.
func legitInterestBasis(purpose consentconstants.Purpose) bool {
	return purpose != purposeStorageAccess
}

// PurposeEnforcer evaluates a single purpose over a working set of vendor permissions.
type PurposeEnforcer struct {
	definition purposeDefinition
	algorithms map[config.TCF2EnforcementAlgo]TypeAlgorithm
}

// NewPurposeEnforcers builds one enforcer per purpose in ascending purpose order.
func NewPurposeEnforcers() []*PurposeEnforcer {
	algorithms := typeAlgorithms()
	enforcers := make([]*PurposeEnforcer, 0, len(purposeTable))
	for _, definition := range purposeTable {
		enforcers = append(enforcers, &PurposeEnforcer{
			definition: definition,
			algorithms: algorithms,
		})
	}
	return enforcers
}

// PurposeCode returns the purpose this enforcer evaluates.
func (pe *PurposeEnforcer) PurposeCode() consentconstants.Purpose {
	return pe.definition.purpose
}

// Allow clears the restrictions governed by consent to the purpose.
func (pe *PurposeEnforcer) Allow(action *PrivacyEnforcementAction) {
	pe.definition.allow(action)
}

// AllowNaturally clears the restrictions governed by legitimate interest in the purpose.
func (pe *PurposeEnforcer) AllowNaturally(action *PrivacyEnforcementAction) {
	pe.definition.allowNaturally(action)
}

// Process returns a copy of the working set with the restrictions this purpose owns relaxed for every
// permission that has legal basis. The working set passed in is not modified.
func (pe *PurposeEnforcer) Process(consent ConsentString, cfg PurposeConfig, workingSet []VendorPermission, downgraded bool) []VendorPermission {
	result := copyPermissions(workingSet)

	var enforced, excepted []*VendorPermission
	for i := range result {
		if cfg.vendorException(result[i].Bidder) {
			excepted = append(excepted, &result[i])
		} else {
			enforced = append(enforced, &result[i])
		}
	}

	enforceVendors := cfg.EnforceVendors
	if len(enforced) == 0 {
		enforceVendors = true
	}

	algorithm, ok := pe.algorithms[cfg.EnforceAlgo]
	if !ok {
		algorithm = pe.algorithms[config.TCF2FullEnforcement]
	}

	for _, permission := range algorithm.AllowedByType(pe.definition.purpose, consent, enforced, excepted, enforceVendors) {
		pe.Allow(&permission.Action)
		if cfg.EnforceAlgo == config.TCF2NoEnforcement {
			pe.AllowNaturally(&permission.Action)
		}
	}

	if cfg.EnforceAlgo == config.TCF2NoEnforcement && downgraded {
		basic := pe.algorithms[config.TCF2BasicEnforcement]
		for _, permission := range basic.AllowedByType(pe.definition.purpose, consent, enforced, excepted, enforceVendors) {
			pe.AllowNaturally(&permission.Action)
		}
	}

	return result
}
