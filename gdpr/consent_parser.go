package gdpr

import (
	"errors"
	"fmt"

	"github.com/prebid/go-gdpr/api"
	"github.com/prebid/go-gdpr/consentconstants"
	"github.com/prebid/go-gdpr/vendorconsent"
	tcf2 "github.com/prebid/go-gdpr/vendorconsent/tcf2"
)

// ConsentString is the decoded view of a TCF2 consent string used to determine legal basis.
// tcf2.ConsentMetadata satisfies it.
type ConsentString interface {
	Version() uint8
	TCFPolicyVersion() uint8
	VendorListVersion() uint16
	PurposeAllowed(purpose consentconstants.Purpose) bool
	PurposeLITransparency(purpose consentconstants.Purpose) bool
	PurposeOneTreatment() bool
	SpecialFeatureOptIn(feature uint16) bool
	VendorConsent(vendorID uint16) bool
	VendorLegitInterest(vendorID uint16) bool
	CheckPubRestriction(purposeID uint8, restrictType uint8, vendorID uint16) bool
}

// parseConsent parses and validates the specified consent string. Only TCF2 encoded strings can be enforced.
func parseConsent(consent string) (ConsentString, error) {
	parsedConsent, err := vendorconsent.ParseString(consent)
	if err != nil {
		return nil, &ErrorMalformedConsent{
			Consent: consent,
			Cause:   err,
		}
	}

	if err := validateVersions(parsedConsent); err != nil {
		return nil, &ErrorMalformedConsent{
			Consent: consent,
			Cause:   err,
		}
	}

	cm, ok := parsedConsent.(tcf2.ConsentMetadata)
	if !ok {
		return nil, &ErrorMalformedConsent{
			Consent: consent,
			Cause:   errors.New("unable to access TCF2 parsed consent"),
		}
	}
	return cm, nil
}

// validateVersions ensures that the encoding version of the consent string can be enforced.
func validateVersions(pc api.VendorConsents) error {
	if version := pc.Version(); version != 2 {
		return fmt.Errorf("invalid encoding format version: %d", version)
	}
	return nil
}

// getSpecVersion looks at the TCF policy version and determines the corresponding GVL specification
// version that should be used to calculate legal basis. A zero value is returned if the policy version
// is invalid
func getSpecVersion(policyVersion uint8) uint16 {
	switch {
	case policyVersion < 4:
		return 2
	case policyVersion <= maxPolicyVersion:
		return 3
	}
	return 0
}
