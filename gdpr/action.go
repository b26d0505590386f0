package gdpr

import (
	"github.com/prebid/go-gdpr/api"
)

// PrivacyEnforcementAction lists the restrictions applied to a bidder. A true flag means the activity is
// restricted. Purposes only ever clear flags.
type PrivacyEnforcementAction struct {
	BlockBidderRequest   bool `json:"blockBidderRequest"`
	BlockAnalyticsReport bool `json:"blockAnalyticsReport"`
	BlockPixelSync       bool `json:"blockPixelSync"`
	RemoveUserIDs        bool `json:"removeUserIds"`
	RemoveUserFPD        bool `json:"removeUserFpd"`
	MaskGeo              bool `json:"maskGeo"`
	MaskDeviceIP         bool `json:"maskDeviceIp"`
	MaskDeviceInfo       bool `json:"maskDeviceInfo"`
}

// RestrictAll returns an action with every activity restricted.
func RestrictAll() PrivacyEnforcementAction {
	return PrivacyEnforcementAction{
		BlockBidderRequest:   true,
		BlockAnalyticsReport: true,
		BlockPixelSync:       true,
		RemoveUserIDs:        true,
		RemoveUserFPD:        true,
		MaskGeo:              true,
		MaskDeviceIP:         true,
		MaskDeviceInfo:       true,
	}
}

// AllowAllActivities returns an action with nothing restricted.
func AllowAllActivities() PrivacyEnforcementAction {
	return PrivacyEnforcementAction{}
}

// IsNone is true when the action restricts nothing.
func (a PrivacyEnforcementAction) IsNone() bool {
	return a == PrivacyEnforcementAction{}
}

// VendorPermission is the restriction record of a single bidder, together with the vendor list declaration
// of the vendor behind it. Vendor is nil when the bidder has no GVL id, the vendor list is unavailable or
// doesn't declare the vendor.
type VendorPermission struct {
	VendorID uint16
	Bidder   string
	Vendor   api.Vendor
	Action   PrivacyEnforcementAction
}

func newVendorPermissions(bidders []string, vendorIDs map[string]uint16, vendorList api.VendorList) []VendorPermission {
	permissions := make([]VendorPermission, 0, len(bidders))
	for _, bidder := range bidders {
		vendorID := vendorIDs[bidder]
		permissions = append(permissions, VendorPermission{
			VendorID: vendorID,
			Bidder:   bidder,
			Vendor:   vendorFor(vendorList, vendorID),
			Action:   RestrictAll(),
		})
	}
	return permissions
}

func copyPermissions(permissions []VendorPermission) []VendorPermission {
	copied := make([]VendorPermission, len(permissions))
	copy(copied, permissions)
	return copied
}
