package gdpr

// enforceSpecialFeatureOne relaxes the geolocation restrictions of every permission allowed to receive precise
// geolocation data. The working set passed in is not modified.
func enforceSpecialFeatureOne(consent ConsentString, cfg TCF2ConfigReader, workingSet []VendorPermission) []VendorPermission {
	result := copyPermissions(workingSet)
	for i := range result {
		if passGeo(consent, cfg, &result[i]) {
			result[i].Action.MaskGeo = false
			result[i].Action.MaskDeviceIP = false
		}
	}
	return result
}

func passGeo(consent ConsentString, cfg TCF2ConfigReader, permission *VendorPermission) bool {
	if !cfg.FeatureOneEnforced() {
		return true
	}
	if cfg.FeatureOneVendorException(permission.Bidder) {
		return true
	}
	return consent.SpecialFeatureOptIn(uint16(specialFeatureGeolocation)) && declaresSpecialFeature(permission.Vendor, specialFeatureGeolocation)
}

// applyPurposeOneTreatment replaces the purpose one evaluation when the publisher signalled purpose one treatment.
// It returns false if the treatment does not apply and purpose one must be evaluated normally.
func applyPurposeOneTreatment(consent ConsentString, cfg TCF2ConfigReader, enforcer *PurposeEnforcer, workingSet []VendorPermission) ([]VendorPermission, bool) {
	if enforcer.PurposeCode() != purposeStorageAccess || !cfg.PurposeOneTreatmentEnabled() || !consent.PurposeOneTreatment() {
		return workingSet, false
	}

	result := copyPermissions(workingSet)
	if cfg.PurposeOneTreatmentAccessAllowed() {
		for i := range result {
			enforcer.Allow(&result[i].Action)
			enforcer.AllowNaturally(&result[i].Action)
		}
	}
	return result, true
}
