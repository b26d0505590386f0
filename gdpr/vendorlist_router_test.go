package gdpr

import (
	"context"
	"testing"

	"github.com/prebid/go-gdpr/api"
	"github.com/stretchr/testify/assert"

	"github.com/prebid/prebid-privacy-server/errortypes"
)

type recordingFetcher struct {
	list     api.VendorList
	versions []int
}

func (f *recordingFetcher) ForVersion(ctx context.Context, version int) (api.VendorList, error) {
	f.versions = append(f.versions, version)
	return f.list, nil
}

func TestVendorListRouterForConsent(t *testing.T) {
	testCases := []struct {
		description     string
		policyVersion   uint8
		expectedFetcher string
		expectedError   string
	}{
		{
			description:     "policy-0",
			policyVersion:   0,
			expectedFetcher: "v2",
		},
		{
			description:     "policy-3",
			policyVersion:   3,
			expectedFetcher: "v2",
		},
		{
			description:     "policy-4",
			policyVersion:   4,
			expectedFetcher: "v3",
		},
		{
			description:     "policy-5",
			policyVersion:   5,
			expectedFetcher: "v3",
		},
		{
			description:   "policy-6",
			policyVersion: 6,
			expectedError: "Invalid tcf policy version: 6",
		},
		{
			description:   "policy-63",
			policyVersion: 63,
			expectedError: "Invalid tcf policy version: 63",
		},
	}

	for _, test := range testCases {
		v2 := &recordingFetcher{list: vendorListVersion(t, 2)}
		v3 := &recordingFetcher{list: vendorListVersion(t, 3)}
		router := NewVendorListRouter(v2, v3)

		list, err := router.ForConsent(context.Background(), fakeConsent{policyVersion: test.policyVersion, listVersion: 42})

		if test.expectedError != "" {
			assert.EqualError(t, err, test.expectedError, test.description)
			assert.IsType(t, &errortypes.BadInput{}, err, test.description)
			assert.Empty(t, v2.versions, test.description+":v2")
			assert.Empty(t, v3.versions, test.description+":v3")
			continue
		}

		assert.NoError(t, err, test.description)
		called := v2
		if test.expectedFetcher == "v3" {
			called = v3
		}
		assert.Equal(t, called.list, list, test.description)
		assert.Equal(t, []int{42}, called.versions, test.description)
	}
}
