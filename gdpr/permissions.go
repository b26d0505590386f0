package gdpr

// AuctionPermissions is the coarse view of an enforcement action used when forwarding a bid request.
type AuctionPermissions struct {
	AllowBidRequest bool
	PassGeo         bool
	PassID          bool
}

var AllowAll = AuctionPermissions{
	AllowBidRequest: true,
	PassGeo:         true,
	PassID:          true,
}

var DenyAll = AuctionPermissions{
	AllowBidRequest: false,
	PassGeo:         false,
	PassID:          false,
}

var AllowBidRequestOnly = AuctionPermissions{
	AllowBidRequest: true,
	PassGeo:         false,
	PassID:          false,
}

// AuctionPermissionsFromAction derives the auction permissions of a bidder from its enforcement action.
func AuctionPermissionsFromAction(action PrivacyEnforcementAction) AuctionPermissions {
	return AuctionPermissions{
		AllowBidRequest: !action.BlockBidderRequest,
		PassGeo:         !action.MaskGeo,
		PassID:          !action.RemoveUserIDs,
	}
}

// SyncAllowed reports whether the bidder may drop or read its user sync cookie.
func SyncAllowed(action PrivacyEnforcementAction) bool {
	return !action.BlockPixelSync
}

// AnalyticsAllowed reports whether auction data may be reported to analytics for the bidder.
func AnalyticsAllowed(action PrivacyEnforcementAction) bool {
	return !action.BlockAnalyticsReport
}
