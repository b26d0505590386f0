package gdpr

import (
	"context"
	"fmt"

	"github.com/prebid/go-gdpr/api"

	"github.com/prebid/prebid-privacy-server/errortypes"
)

// maxPolicyVersion is the highest TCF policy version served by the v3 vendor lists.
const maxPolicyVersion = 5

// ConsentVendorLists resolves the vendor list a consent string was created against.
type ConsentVendorLists interface {
	ForConsent(ctx context.Context, consent ConsentString) (api.VendorList, error)
}

// VendorListRouter selects the vendor list generation from the TCF policy version of a consent string.
type VendorListRouter struct {
	v2 VendorListFetcher
	v3 VendorListFetcher
}

func NewVendorListRouter(v2, v3 VendorListFetcher) *VendorListRouter {
	return &VendorListRouter{
		v2: v2,
		v3: v3,
	}
}

// ForConsent returns the list version embedded in the consent string. Consent strings with a policy version
// outside every generation are rejected with a BadInput error.
func (r *VendorListRouter) ForConsent(ctx context.Context, consent ConsentString) (api.VendorList, error) {
	version := int(consent.VendorListVersion())

	switch getSpecVersion(consent.TCFPolicyVersion()) {
	case 2:
		return r.v2.ForVersion(ctx, version)
	case 3:
		return r.v3.ForVersion(ctx, version)
	}
	return nil, &errortypes.BadInput{
		Message: fmt.Sprintf("Invalid tcf policy version: %d", consent.TCFPolicyVersion()),
	}
}
