package privacy

import (
	"encoding/json"
	"math"
	"net"

	"github.com/buger/jsonparser"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/gdpr"
	"github.com/prebid/prebid-privacy-server/util/iputil"
)

const (
	ipv4Bits = 32
	ipv6Bits = 128
)

// Scrubber removes the personal information a bidder is not allowed to receive from a bid request.
type Scrubber interface {
	// ScrubRequest returns a copy of the request with the restrictions of the action applied, or nil if the
	// bidder must not receive the request at all. The request passed in is not modified.
	ScrubRequest(req *openrtb2.BidRequest, action gdpr.PrivacyEnforcementAction) *openrtb2.BidRequest
}

type scrubber struct {
	ipv4KeepBits int
	ipv6KeepBits int
}

// NewScrubber returns an OpenRTB Scrubber masking ip addresses as configured.
func NewScrubber(cfg config.Privacy) Scrubber {
	return scrubber{
		ipv4KeepBits: cfg.IPv4.AnonKeepBits,
		ipv6KeepBits: cfg.IPv6.AnonKeepBits,
	}
}

func (s scrubber) ScrubRequest(req *openrtb2.BidRequest, action gdpr.PrivacyEnforcementAction) *openrtb2.BidRequest {
	if req == nil || action.BlockBidderRequest {
		return nil
	}

	scrubbed := *req
	if req.User != nil {
		user := *req.User
		scrubbed.User = &user
	}
	if req.Device != nil {
		device := *req.Device
		scrubbed.Device = &device
	}

	if action.RemoveUserIDs {
		scrubUserIDs(scrubbed.User)
		scrubEIDs(scrubbed.User)
	}
	if action.RemoveUserFPD {
		scrubUserDemographics(scrubbed.User)
		scrubUserData(scrubbed.User)
	}
	if action.MaskGeo {
		scrubGEO(scrubbed.User, scrubbed.Device)
	}
	if action.MaskDeviceIP {
		s.scrubDeviceIP(scrubbed.Device)
	}
	if action.MaskDeviceInfo {
		scrubDeviceIDs(scrubbed.Device)
	}
	return &scrubbed
}

func scrubDeviceIDs(device *openrtb2.Device) {
	if device == nil {
		return
	}
	device.DIDMD5 = ""
	device.DIDSHA1 = ""
	device.DPIDMD5 = ""
	device.DPIDSHA1 = ""
	device.IFA = ""
	device.MACMD5 = ""
	device.MACSHA1 = ""
}

func scrubUserIDs(user *openrtb2.User) {
	if user == nil {
		return
	}
	user.ID = ""
	user.BuyerUID = ""
}

func scrubEIDs(user *openrtb2.User) {
	if user == nil {
		return
	}
	user.EIDs = nil
	user.Ext = scrubExtIDs(user.Ext, "eids")
}

func scrubUserDemographics(user *openrtb2.User) {
	if user == nil {
		return
	}
	user.Yob = 0
	user.Gender = ""
}

func scrubUserData(user *openrtb2.User) {
	if user == nil {
		return
	}
	user.Data = nil
	user.Keywords = ""
	user.KwArray = nil
	user.Ext = scrubExtIDs(user.Ext, "data")
}

func scrubGEO(user *openrtb2.User, device *openrtb2.Device) {
	if user != nil {
		user.Geo = scrubGeoPrecision(user.Geo)
	}
	if device != nil {
		device.Geo = scrubGeoPrecision(device.Geo)
	}
}

func (s scrubber) scrubDeviceIP(device *openrtb2.Device) {
	if device == nil {
		return
	}
	device.IP = scrubIP(device.IP, s.ipv4KeepBits, ipv4Bits)
	device.IPv6 = scrubIP(device.IPv6, s.ipv6KeepBits, ipv6Bits)
}

// scrubIP zeroes everything but the leading maskBits of the address. bits is 32 for ipv4 and 128 for ipv6.
func scrubIP(ip string, maskBits, bits int) string {
	if ip == "" {
		return ""
	}
	parsed, ver := iputil.ParseIP(ip)
	switch {
	case ver == iputil.IPv4 && bits == ipv4Bits:
		parsed = parsed.To4()
	case ver == iputil.IPv6 && bits == ipv6Bits:
	default:
		return ""
	}
	return parsed.Mask(net.CIDRMask(maskBits, bits)).String()
}

// scrubGeoPrecision returns a copy of the geo with the coordinates rounded to two decimals.
func scrubGeoPrecision(geo *openrtb2.Geo) *openrtb2.Geo {
	if geo == nil {
		return nil
	}

	geoCopy := *geo
	if geo.Lat != nil {
		lat := roundTwoDecimals(*geo.Lat)
		geoCopy.Lat = &lat
	}
	if geo.Lon != nil {
		lon := roundTwoDecimals(*geo.Lon)
		geoCopy.Lon = &lon
	}
	return &geoCopy
}

func roundTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// scrubExtIDs removes a top level field from an ext object. Malformed input is returned as is.
func scrubExtIDs(ext json.RawMessage, fieldName string) json.RawMessage {
	if _, _, _, err := jsonparser.Get(ext, fieldName); err != nil {
		return ext
	}
	return jsonparser.Delete(append([]byte(nil), ext...), fieldName)
}
