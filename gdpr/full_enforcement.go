package gdpr

import (
	"github.com/prebid/go-gdpr/consentconstants"
)

const (
	pubRestrictNotAllowed           = 0
	pubRestrictRequireConsent       = 1
	pubRestrictRequireLegitInterest = 2
)

// fullEnforcement determines legal basis using the TCF2 full enforcement algorithm. Publisher restrictions are
// honored and, when vendors are enforced, the vendor must both declare the purpose in the GVL and carry the
// matching consent or legitimate interest bit in the consent string.
type fullEnforcement struct{}

func (fullEnforcement) AllowedByType(purpose consentconstants.Purpose, consent ConsentString, enforced, excepted []*VendorPermission, enforceVendors bool) []*VendorPermission {
	return allowedWith(enforced, excepted, func(permission *VendorPermission) bool {
		return fullLegalBasis(purpose, consent, permission, enforceVendors)
	})
}

func fullLegalBasis(purpose consentconstants.Purpose, consent ConsentString, permission *VendorPermission, enforceVendors bool) bool {
	vendorID := permission.VendorID
	if consent.CheckPubRestriction(uint8(purpose), pubRestrictNotAllowed, vendorID) {
		return false
	}

	purposeAllowed := consentEstablished(purpose, consent, permission, enforceVendors)
	legitInterest := legitInterestEstablished(purpose, consent, permission, enforceVendors)

	if consent.CheckPubRestriction(uint8(purpose), pubRestrictRequireConsent, vendorID) {
		return purposeAllowed
	}
	if consent.CheckPubRestriction(uint8(purpose), pubRestrictRequireLegitInterest, vendorID) {
		return legitInterest
	}

	return purposeAllowed || legitInterest
}

func consentEstablished(purpose consentconstants.Purpose, consent ConsentString, permission *VendorPermission, enforceVendors bool) bool {
	if !consent.PurposeAllowed(purpose) {
		return false
	}
	if !enforceVendors {
		return true
	}
	return declaresConsent(permission.Vendor, purpose) && consent.VendorConsent(permission.VendorID)
}

func legitInterestEstablished(purpose consentconstants.Purpose, consent ConsentString, permission *VendorPermission, enforceVendors bool) bool {
	if !legitInterestBasis(purpose) || !consent.PurposeLITransparency(purpose) {
		return false
	}
	if !enforceVendors {
		return true
	}
	return declaresLegitInterest(permission.Vendor, purpose) && consent.VendorLegitInterest(permission.VendorID)
}
