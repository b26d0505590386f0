package gdpr

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/prebid/go-gdpr/api"
	"github.com/prebid/go-gdpr/consentconstants"
	"github.com/prebid/go-gdpr/vendorlist2"
	"github.com/xeipuuv/gojsonschema"
)

// vendorListSchema covers the structure go-gdpr doesn't check: the document must be dated and every vendor
// must carry an id in the range of the consent string vendor sections.
const vendorListSchema = `{
  "type": "object",
  "required": ["vendorListVersion", "lastUpdated", "vendors"],
  "properties": {
    "gvlSpecificationVersion": {"type": "integer", "minimum": 1, "maximum": 65535},
    "vendorListVersion": {"type": "integer", "minimum": 1, "maximum": 65535},
    "lastUpdated": {"type": "string", "minLength": 1},
    "vendors": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "integer", "minimum": 1, "maximum": 65535},
          "purposes": {"$ref": "#/definitions/ids"},
          "legIntPurposes": {"$ref": "#/definitions/ids"},
          "flexiblePurposes": {"$ref": "#/definitions/ids"},
          "specialPurposes": {"$ref": "#/definitions/ids"},
          "features": {"$ref": "#/definitions/ids"},
          "specialFeatures": {"$ref": "#/definitions/ids"}
        }
      }
    }
  },
  "definitions": {
    "ids": {"type": "array", "items": {"type": "integer", "minimum": 1, "maximum": 255}}
  }
}`

var vendorListValidator = mustLoadSchema(vendorListSchema)

func mustLoadSchema(schema string) *gojsonschema.Schema {
	loaded, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("Failed to load vendor list json schema: %v", err))
	}
	return loaded
}

// ParseVendorList validates a GVL document and parses it eagerly, so the result can be shared between
// goroutines.
func ParseVendorList(data []byte) (api.VendorList, error) {
	result, err := vendorListValidator.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("vendor list is not valid JSON: %v", err)
	}
	if !result.Valid() {
		errBuilder := bytes.NewBuffer(make([]byte, 0, 300))
		for i, resultErr := range result.Errors() {
			if i > 0 {
				errBuilder.WriteString("; ")
			}
			errBuilder.WriteString(resultErr.String())
		}
		return nil, errors.New(errBuilder.String())
	}

	lastUpdated, err := jsonparser.GetString(data, "lastUpdated")
	if err != nil {
		return nil, fmt.Errorf("vendor list lastUpdated could not be read: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, lastUpdated); err != nil {
		return nil, fmt.Errorf("vendor list lastUpdated is not a timestamp: %s", lastUpdated)
	}

	list, err := vendorlist2.ParseEagerly(data)
	if err != nil {
		return nil, fmt.Errorf("vendor list could not be decoded: %v", err)
	}
	return list, nil
}

// vendorFor looks up a vendor declaration. It returns nil when there is no list, the bidder has no GVL id or
// the list doesn't declare the vendor.
func vendorFor(list api.VendorList, vendorID uint16) api.Vendor {
	if list == nil || vendorID == 0 {
		return nil
	}
	return list.Vendor(vendorID)
}

// declaresConsent is true if the vendor may rely on consent for the purpose, flexible purposes included.
func declaresConsent(vendor api.Vendor, purpose consentconstants.Purpose) bool {
	return vendor != nil && vendor.Purpose(purpose)
}

// declaresLegitInterest is true if the vendor may rely on legitimate interest for the purpose, flexible
// purposes included.
func declaresLegitInterest(vendor api.Vendor, purpose consentconstants.Purpose) bool {
	return vendor != nil && vendor.LegitimateInterest(purpose)
}

func declaresSpecialFeature(vendor api.Vendor, feature consentconstants.SpecialFeature) bool {
	return vendor != nil && vendor.SpecialFeature(feature)
}
