package gdpr

import (
	"github.com/prebid/go-gdpr/consentconstants"

	"github.com/prebid/prebid-privacy-server/config"
)

// TypeAlgorithm decides which permissions have legal basis for a purpose under one enforcement algorithm.
// The returned permissions are a subset of enforced and excepted.
type TypeAlgorithm interface {
	AllowedByType(purpose consentconstants.Purpose, consent ConsentString, enforced, excepted []*VendorPermission, enforceVendors bool) []*VendorPermission
}

func typeAlgorithms() map[config.TCF2EnforcementAlgo]TypeAlgorithm {
	return map[config.TCF2EnforcementAlgo]TypeAlgorithm{
		config.TCF2NoEnforcement:    noEnforcement{},
		config.TCF2BasicEnforcement: basicEnforcement{},
		config.TCF2FullEnforcement:  fullEnforcement{},
	}
}

// noEnforcement does not gate the purpose at all.
type noEnforcement struct{}

func (noEnforcement) AllowedByType(purpose consentconstants.Purpose, consent ConsentString, enforced, excepted []*VendorPermission, enforceVendors bool) []*VendorPermission {
	allowed := make([]*VendorPermission, 0, len(enforced)+len(excepted))
	allowed = append(allowed, enforced...)
	return append(allowed, excepted...)
}

func allowedWith(enforced, excepted []*VendorPermission, legalBasis func(permission *VendorPermission) bool) []*VendorPermission {
	allowed := make([]*VendorPermission, 0, len(enforced)+len(excepted))
	for _, permission := range enforced {
		if legalBasis(permission) {
			allowed = append(allowed, permission)
		}
	}
	return append(allowed, excepted...)
}
