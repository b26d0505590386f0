package gdpr

import (
	"strconv"
	"strings"

	"github.com/prebid/prebid-privacy-server/errortypes"
)

type Signal int

const (
	SignalAmbiguous Signal = -1
	SignalNo        Signal = 0
	SignalYes       Signal = 1
)

var gdprSignalError = &errortypes.BadInput{Message: "GDPR signal should be integer 0 or 1"}

// SignalParse returns a parsed GDPR signal or a parse error.
func SignalParse(rawSignal string) (Signal, error) {
	if rawSignal == "" {
		return SignalAmbiguous, nil
	}

	i, err := strconv.Atoi(rawSignal)

	if err != nil || (i != 0 && i != 1) {
		return SignalAmbiguous, gdprSignalError
	}

	return Signal(i), nil
}

// SignalNormalize normalizes a GDPR signal to ensure it's always either SignalYes or SignalNo.
func SignalNormalize(signal Signal, gdprDefaultValue string) Signal {
	if signal != SignalAmbiguous {
		return signal
	}

	if gdprDefaultValue == "0" {
		return SignalNo
	}

	return SignalYes
}

// SignalForCountry resolves an ambiguous signal from the country of the user when it is known.
// Users in an EEA country are in scope, everyone else is not.
func SignalForCountry(signal Signal, country string, eeaCountries map[string]struct{}) Signal {
	if signal != SignalAmbiguous || country == "" {
		return signal
	}

	if _, found := eeaCountries[strings.ToUpper(country)]; found {
		return SignalYes
	}
	return SignalNo
}
