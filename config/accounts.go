package config

import (
	"fmt"

	"github.com/prebid/go-gdpr/consentconstants"
)

// Account represents a publisher account configuration
type Account struct {
	ID       string      `mapstructure:"id" json:"id"`
	Disabled bool        `mapstructure:"disabled" json:"disabled"`
	GDPR     AccountGDPR `mapstructure:"gdpr" json:"gdpr"`
}

// AccountGDPR represents account-specific GDPR configuration. Unset values fall back to the host config.
type AccountGDPR struct {
	Enabled   *bool              `mapstructure:"enabled" json:"enabled,omitempty"`
	Purpose1  AccountGDPRPurpose `mapstructure:"purpose1" json:"purpose1"`
	Purpose2  AccountGDPRPurpose `mapstructure:"purpose2" json:"purpose2"`
	Purpose3  AccountGDPRPurpose `mapstructure:"purpose3" json:"purpose3"`
	Purpose4  AccountGDPRPurpose `mapstructure:"purpose4" json:"purpose4"`
	Purpose5  AccountGDPRPurpose `mapstructure:"purpose5" json:"purpose5"`
	Purpose6  AccountGDPRPurpose `mapstructure:"purpose6" json:"purpose6"`
	Purpose7  AccountGDPRPurpose `mapstructure:"purpose7" json:"purpose7"`
	Purpose8  AccountGDPRPurpose `mapstructure:"purpose8" json:"purpose8"`
	Purpose9  AccountGDPRPurpose `mapstructure:"purpose9" json:"purpose9"`
	Purpose10 AccountGDPRPurpose `mapstructure:"purpose10" json:"purpose10"`
	// Hash table of purpose configs for convenient purpose config lookup
	PurposeConfigs      map[consentconstants.Purpose]*AccountGDPRPurpose `json:"-"`
	PurposeOneTreatment AccountGDPRPurposeOneTreatment                   `mapstructure:"purpose_one_treatment" json:"purpose_one_treatment"`
	SpecialFeature1     AccountGDPRSpecialFeature                        `mapstructure:"special_feature1" json:"special_feature1"`
}

// AccountGDPRPurpose represents account-specific GDPR purpose configuration
type AccountGDPRPurpose struct {
	EnforceAlgo string `mapstructure:"enforce_algo" json:"enforce_algo,omitempty"`
	// Integer representation of enforcement algo for performance improvement on compares
	EnforceAlgoID    TCF2EnforcementAlgo `json:"-"`
	EnforceVendors   *bool               `mapstructure:"enforce_vendors" json:"enforce_vendors,omitempty"`
	VendorExceptions []string            `mapstructure:"vendor_exceptions" json:"vendor_exceptions"`
	// Nil when the account does not override the host vendor exceptions
	VendorExceptionMap map[string]struct{} `json:"-"`
}

// AccountGDPRSpecialFeature represents account-specific GDPR special feature configuration
type AccountGDPRSpecialFeature struct {
	Enforce            *bool               `mapstructure:"enforce" json:"enforce"`
	VendorExceptions   []string            `mapstructure:"vendor_exceptions" json:"vendor_exceptions"`
	VendorExceptionMap map[string]struct{} `json:"-"`
}

type AccountGDPRPurposeOneTreatment struct {
	Enabled       *bool `mapstructure:"enabled"`
	AccessAllowed *bool `mapstructure:"access_allowed"`
}

// resolve sets the fields derived from the raw account configuration.
func (a *AccountGDPR) resolve() {
	a.PurposeConfigs = map[consentconstants.Purpose]*AccountGDPRPurpose{
		1:  &a.Purpose1,
		2:  &a.Purpose2,
		3:  &a.Purpose3,
		4:  &a.Purpose4,
		5:  &a.Purpose5,
		6:  &a.Purpose6,
		7:  &a.Purpose7,
		8:  &a.Purpose8,
		9:  &a.Purpose9,
		10: &a.Purpose10,
	}

	for _, pc := range a.PurposeConfigs {
		pc.EnforceAlgoID = TCF2UndefinedEnforcement
		if pc.EnforceAlgo != "" {
			pc.EnforceAlgoID = ParseEnforcementAlgo(pc.EnforceAlgo)
		}
		if pc.VendorExceptions != nil {
			pc.VendorExceptionMap = stringSet(pc.VendorExceptions)
		}
	}

	if a.SpecialFeature1.VendorExceptions != nil {
		a.SpecialFeature1.VendorExceptionMap = stringSet(a.SpecialFeature1.VendorExceptions)
	}
}

func (a *AccountGDPR) validate(prefix string, errs []error) []error {
	for i := 1; i <= 10; i++ {
		pc := a.PurposeConfigs[consentconstants.Purpose(i)]
		if pc == nil || pc.EnforceAlgo == "" {
			continue
		}
		if pc.EnforceAlgoID == TCF2UndefinedEnforcement {
			errs = append(errs, fmt.Errorf("%s.purpose%d.enforce_algo must be one of [%s, %s, %s]. Got %s", prefix, i, TCF2EnforceAlgoNo, TCF2EnforceAlgoBasic, TCF2EnforceAlgoFull, pc.EnforceAlgo))
		}
	}
	return errs
}

// PurposeEnforcementAlgo checks the purpose enforcement algo for a given purpose. The second return value is false
// when the account does not set it.
func (a *AccountGDPR) PurposeEnforcementAlgo(purpose consentconstants.Purpose) (value TCF2EnforcementAlgo, exists bool) {
	c, exists := a.PurposeConfigs[purpose]
	if exists && c.EnforceAlgoID != TCF2UndefinedEnforcement {
		return c.EnforceAlgoID, true
	}
	return TCF2UndefinedEnforcement, false
}

// PurposeEnforcingVendors gets the account level enforce vendors setting for a given purpose returning the value and
// whether or not it is set. If not set, a default value of true is returned matching host default behavior.
func (a *AccountGDPR) PurposeEnforcingVendors(purpose consentconstants.Purpose) (value, exists bool) {
	c, exists := a.PurposeConfigs[purpose]
	if exists && c.EnforceVendors != nil {
		return *c.EnforceVendors, true
	}
	return true, false
}

// PurposeVendorExceptions returns the account level vendor exception map for a given purpose, if set.
func (a *AccountGDPR) PurposeVendorExceptions(purpose consentconstants.Purpose) (value map[string]struct{}, exists bool) {
	c, exists := a.PurposeConfigs[purpose]
	if exists && c.VendorExceptionMap != nil {
		return c.VendorExceptionMap, true
	}
	return nil, false
}

// FeatureOneEnforced gets the account level feature one enforced setting returning the value and whether or not it
// is set. If not set, a default value of true is returned matching host default behavior.
func (a *AccountGDPR) FeatureOneEnforced() (value, exists bool) {
	if a.SpecialFeature1.Enforce == nil {
		return true, false
	}
	return *a.SpecialFeature1.Enforce, true
}

// FeatureOneVendorException checks if the given bidder is a vendor exception.
func (a *AccountGDPR) FeatureOneVendorException(bidder string) (value, exists bool) {
	if a.SpecialFeature1.VendorExceptionMap == nil {
		return false, false
	}
	_, found := a.SpecialFeature1.VendorExceptionMap[bidder]
	return found, true
}

// PurposeOneTreatmentEnabled gets the account level purpose one treatment enabled setting returning the value and
// whether or not it is set. If not set, a default value of true is returned matching host default behavior.
func (a *AccountGDPR) PurposeOneTreatmentEnabled() (value, exists bool) {
	if a.PurposeOneTreatment.Enabled == nil {
		return true, false
	}
	return *a.PurposeOneTreatment.Enabled, true
}

// PurposeOneTreatmentAccessAllowed gets the account level purpose one treatment access allowed setting returning the
// value and whether or not it is set. If not set, a default value of true is returned matching host default behavior.
func (a *AccountGDPR) PurposeOneTreatmentAccessAllowed() (value, exists bool) {
	if a.PurposeOneTreatment.AccessAllowed == nil {
		return true, false
	}
	return *a.PurposeOneTreatment.AccessAllowed, true
}
