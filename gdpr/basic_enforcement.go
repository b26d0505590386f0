package gdpr

import (
	"github.com/prebid/go-gdpr/consentconstants"
)

// basicEnforcement determines legal basis using the TCF2 basic enforcement algorithm. The algorithm is a
// high-level mode of consent confirmation that looks for a good-faith indication that the user has provided
// consent or legal basis signals necessary to perform a privacy-protected activity. Per vendor consent bits
// are never consulted; when vendors are enforced the GVL declaration must list the purpose.
type basicEnforcement struct{}

func (basicEnforcement) AllowedByType(purpose consentconstants.Purpose, consent ConsentString, enforced, excepted []*VendorPermission, enforceVendors bool) []*VendorPermission {
	return allowedWith(enforced, excepted, func(permission *VendorPermission) bool {
		consentSignal := consent.PurposeAllowed(purpose)
		legitInterestSignal := legitInterestBasis(purpose) && consent.PurposeLITransparency(purpose)
		if !consentSignal && !legitInterestSignal {
			return false
		}
		if !enforceVendors {
			return true
		}

		if consentSignal && declaresConsent(permission.Vendor, purpose) {
			return true
		}
		return legitInterestSignal && declaresLegitInterest(permission.Vendor, purpose)
	})
}
