package gdpr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prebid/go-gdpr/consentconstants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/errortypes"
	"github.com/prebid/prebid-privacy-server/metrics"
)

func TestForVersionRejectsNonPositiveVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(mockServer(serverSettings{
		vendorLists: map[int]string{0: vendorList1},
	})))
	defer server.Close()

	store, _ := newTestStore(t, server, config.VendorListConfig{}, t.TempDir())

	for _, version := range []int{0, -2} {
		list, err := store.ForVersion(context.Background(), version)
		assert.Nil(t, list)
		assert.EqualError(t, err, "Vendor list version must be positive: "+strconv.Itoa(version))
		assert.IsType(t, &errortypes.BadInput{}, err)
	}
	assert.Empty(t, store.MissingVersions())
}

func TestForVersionFetchesAndPersists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(mockServer(serverSettings{
		vendorLists: map[int]string{2: vendorList2},
	})))
	defer server.Close()

	dir := t.TempDir()
	store, metricsEngine := newTestStore(t, server, config.VendorListConfig{}, dir)

	list, err := store.ForVersion(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), list.Version())
	if declared := list.Vendor(12); assert.NotNil(t, declared) {
		assert.False(t, declared.Purpose(consentconstants.Purpose(1)))
		assert.True(t, declared.Purpose(consentconstants.Purpose(2)))
		assert.True(t, declared.Purpose(consentconstants.Purpose(3)))
	}

	persisted, err := os.ReadFile(filepath.Join(dir, "2.json"))
	require.NoError(t, err, "vendor list file")
	assert.JSONEq(t, vendorList2, string(persisted))
	assertNoTempFiles(t, dir)

	metricsEngine.AssertCalled(t, "RecordVendorListFetch", metrics.VendorListLabels{Generation: "v2", Status: metrics.VendorListOK})
	assert.Empty(t, store.MissingVersions())

	// Served from the cache afterwards.
	server.Close()
	cached, err := store.ForVersion(context.Background(), 2)
	assert.NoError(t, err)
	assert.Equal(t, list, cached)
	metricsEngine.AssertNumberOfCalls(t, "RecordVendorListFetch", 1)
}

func TestForVersionFetchFailures(t *testing.T) {
	testCases := []struct {
		description    string
		status         int
		body           string
		expectedStatus metrics.VendorListFetchStatus
	}{
		{
			description:    "not-found",
			status:         http.StatusNotFound,
			expectedStatus: metrics.VendorListMissing,
		},
		{
			description:    "unavailable",
			status:         http.StatusServiceUnavailable,
			expectedStatus: metrics.VendorListError,
		},
		{
			description:    "unparsable",
			status:         http.StatusOK,
			body:           "malformed",
			expectedStatus: metrics.VendorListError,
		},
		{
			description:    "null-vendors",
			status:         http.StatusOK,
			body:           `{"vendorListVersion":1,"lastUpdated":"2020-03-19T16:05:36Z","vendors":null}`,
			expectedStatus: metrics.VendorListError,
		},
		{
			description:    "empty-vendors",
			status:         http.StatusOK,
			body:           `{"vendorListVersion":1,"lastUpdated":"2020-03-19T16:05:36Z","vendors":{}}`,
			expectedStatus: metrics.VendorListError,
		},
		{
			description:    "vendor-without-id",
			status:         http.StatusOK,
			body:           `{"vendorListVersion":1,"lastUpdated":"2020-03-19T16:05:36Z","vendors":{"12":{"purposes":[1]}}}`,
			expectedStatus: metrics.VendorListError,
		},
		{
			description:    "missing-last-updated",
			status:         http.StatusOK,
			body:           `{"vendorListVersion":1,"vendors":{"12":{"id":12}}}`,
			expectedStatus: metrics.VendorListError,
		},
	}

	for _, test := range testCases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(test.status)
			w.Write([]byte(test.body))
		}))

		dir := t.TempDir()
		store, metricsEngine := newTestStore(t, server, config.VendorListConfig{}, dir)

		list, err := store.ForVersion(context.Background(), 1)
		assert.Error(t, err, test.description)
		assert.Nil(t, list, test.description)
		assert.IsType(t, &errortypes.BadServerResponse{}, err, test.description)

		_, cached := store.cache.Get(cacheKey(1))
		assert.False(t, cached, test.description+":cache")
		_, statErr := os.Stat(filepath.Join(dir, "1.json"))
		assert.True(t, os.IsNotExist(statErr), test.description+":file")
		metricsEngine.AssertCalled(t, "RecordVendorListFetch", metrics.VendorListLabels{Generation: "v2", Status: test.expectedStatus})
		assert.Equal(t, []int{1}, store.MissingVersions(), test.description+":missing")

		server.Close()
	}
}

func TestForVersionServerUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	store, metricsEngine := newTestStore(t, server, config.VendorListConfig{}, t.TempDir())

	_, err := store.ForVersion(context.Background(), 1)
	assert.Error(t, err)
	metricsEngine.AssertCalled(t, "RecordVendorListFetch", metrics.VendorListLabels{Generation: "v2", Status: metrics.VendorListError})
}

func TestForVersionThrottled(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store, _ := newTestStore(t, server, config.VendorListConfig{}, t.TempDir())

	_, err := store.ForVersion(context.Background(), 3)
	assert.IsType(t, &errortypes.BadServerResponse{}, err)

	_, err = store.ForVersion(context.Background(), 3)
	assert.EqualError(t, err, "Vendor list v2 version 3 not fetched yet, try again later")
	assert.IsType(t, &errortypes.VendorListNotFetched{}, err)
	assert.Equal(t, 1, requests)
}

func TestForVersionConcurrentReaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(mockServer(serverSettings{
		vendorLists: map[int]string{1: vendorList1, 2: vendorList2},
	})))
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.json"), []byte(vendorList1), 0644))
	store, _ := newTestStore(t, server, config.VendorListConfig{}, dir)

	var wg sync.WaitGroup
	for i := 0; i < 48; i++ {
		wg.Add(1)
		go func(version int) {
			defer wg.Done()
			list, err := store.ForVersion(context.Background(), version)
			if version == 3 {
				assert.Error(t, err, "version 3 does not exist")
				assert.Nil(t, list)
			} else if assert.NoError(t, err, "version %d", version) {
				assert.Equal(t, uint16(version), list.Version())
			}
			store.MissingVersions()
		}(i%3 + 1)
	}
	wg.Wait()

	assert.Equal(t, []int{3}, store.MissingVersions())
	assert.FileExists(t, filepath.Join(dir, "2.json"))
	assertNoTempFiles(t, dir)
}

func TestForVersionFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fallbackPath := writeFallbackFile(t)
	store, metricsEngine := newTestStore(t, server, config.VendorListConfig{FallbackPath: fallbackPath}, t.TempDir())

	for i := 0; i < 2; i++ {
		list, err := store.ForVersion(context.Background(), 7)
		assert.NoError(t, err)
		assert.Equal(t, uint16(215), list.Version(), "fallback list version")
		if declared := list.Vendor(12); assert.NotNil(t, declared) {
			assert.True(t, declared.Purpose(consentconstants.Purpose(1)))
		}
	}
	metricsEngine.AssertCalled(t, "RecordVendorListFetch", metrics.VendorListLabels{Generation: "v2", Status: metrics.VendorListFallback})
	metricsEngine.AssertNumberOfCalls(t, "RecordVendorListFetch", 3)
}

func TestDeprecatedStore(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	fallbackPath := writeFallbackFile(t)
	store, metricsEngine := newTestStore(t, server, config.VendorListConfig{Deprecated: true, FallbackPath: fallbackPath}, t.TempDir())

	for _, version := range []int{1, 2, 500} {
		list, err := store.ForVersion(context.Background(), version)
		assert.NoError(t, err)
		assert.Equal(t, uint16(215), list.Version())
	}
	assert.Equal(t, 0, requests)
	metricsEngine.AssertCalled(t, "RecordVendorListFetch", metrics.VendorListLabels{Generation: "v2", Status: metrics.VendorListFallback})
}

func TestDeprecatedStoreRequiresFallback(t *testing.T) {
	_, err := NewVendorListStore("v2", config.VendorListConfig{Deprecated: true}, t.TempDir(), time.Second, VendorListStoreDeps{})

	assert.EqualError(t, err, "No fallback vendorList for deprecated version present")
}

func TestInvalidFallbackFailsConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vendors":{}}`), 0644))

	_, err := NewVendorListStore("v2", config.VendorListConfig{FallbackPath: path}, t.TempDir(), time.Second, VendorListStoreDeps{})

	assert.Error(t, err)
}

func TestWarmCacheLoadsPersistedLists(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.json"), []byte(vendorList1), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	store, _ := newTestStore(t, server, config.VendorListConfig{}, dir)

	list, err := store.ForVersion(context.Background(), 1)
	assert.NoError(t, err)
	assert.NotNil(t, list.Vendor(12))
	assert.Equal(t, 0, requests)
}

func TestWarmCacheCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "v3")

	_, err := NewVendorListStore("v3", config.VendorListConfig{}, dir, time.Second, VendorListStoreDeps{})

	assert.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestWarmCacheFailures(t *testing.T) {
	testCases := []struct {
		description string
		fileName    string
		contents    string
	}{
		{
			description: "unparsable",
			fileName:    "1.json",
			contents:    "malformed",
		},
		{
			description: "not-a-version",
			fileName:    "latest.json",
			contents:    vendorList1,
		},
	}

	for _, test := range testCases {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, test.fileName), []byte(test.contents), 0644))

		_, err := NewVendorListStore("v2", config.VendorListConfig{}, dir, time.Second, VendorListStoreDeps{})
		assert.Error(t, err, test.description)
	}
}

func TestForVersionTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	metricsEngine := &metrics.MetricsEngineMock{}
	metricsEngine.On("RecordVendorListFetch", mock.Anything).Return()
	store, err := NewVendorListStore("v2", config.VendorListConfig{EndpointTemplate: server.URL + "?version={VERSION}"}, t.TempDir(), time.Millisecond, VendorListStoreDeps{
		Client:        server.Client(),
		Throttler:     NewFetchThrottler(NonRetryable{}, clock.NewMock()),
		Pool:          syncWorkerPool{},
		MetricsEngine: metricsEngine,
	})
	require.NoError(t, err)

	_, err = store.ForVersion(context.Background(), 1)
	assert.IsType(t, &errortypes.Timeout{}, err)
}

func newTestStore(t *testing.T, server *httptest.Server, cfg config.VendorListConfig, dir string) (*VendorListStore, *metrics.MetricsEngineMock) {
	t.Helper()

	metricsEngine := &metrics.MetricsEngineMock{}
	metricsEngine.On("RecordVendorListFetch", mock.Anything).Return()

	cfg.EndpointTemplate = server.URL + "?version={VERSION}"
	store, err := NewVendorListStore("v2", cfg, dir, 5*time.Second, VendorListStoreDeps{
		Client:        server.Client(),
		Throttler:     NewFetchThrottler(ExponentialBackoff{Delay: time.Minute, Factor: 2}, clock.NewMock()),
		Pool:          syncWorkerPool{},
		MetricsEngine: metricsEngine,
	})
	require.NoError(t, err)
	return store, metricsEngine
}

func writeFallbackFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte(vendorListFallback), 0644))
	return path
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

// syncWorkerPool runs tasks on the calling goroutine.
type syncWorkerPool struct{}

func (syncWorkerPool) TrySubmit(task func()) bool {
	task()
	return true
}

func (syncWorkerPool) Stop() {}

var vendorList1 = MarshalVendorList(vendorList{
	VendorListVersion: 1,
	Vendors:           map[string]*vendor{"12": {ID: 12, Purposes: []int{2}}},
})

var vendorList2 = MarshalVendorList(vendorList{
	VendorListVersion: 2,
	Vendors:           map[string]*vendor{"12": {ID: 12, Purposes: []int{2, 3}}},
})

var vendorListFallback = MarshalVendorList(vendorList{
	VendorListVersion: 215,
	Vendors:           map[string]*vendor{"12": {ID: 12, Purposes: []int{1, 3}}},
})

type vendorList struct {
	VendorListVersion uint16             `json:"vendorListVersion"`
	LastUpdated       string             `json:"lastUpdated"`
	Vendors           map[string]*vendor `json:"vendors"`
}

type vendor struct {
	ID               uint16 `json:"id"`
	Purposes         []int  `json:"purposes,omitempty"`
	LegIntPurposes   []int  `json:"legIntPurposes,omitempty"`
	FlexiblePurposes []int  `json:"flexiblePurposes,omitempty"`
	SpecialPurposes  []int  `json:"specialPurposes,omitempty"`
	SpecialFeatures  []int  `json:"specialFeatures,omitempty"`
}

func MarshalVendorList(vendorList vendorList) string {
	if vendorList.LastUpdated == "" {
		vendorList.LastUpdated = "2020-03-19T16:05:36Z"
	}
	json, _ := json.Marshal(vendorList)
	return string(json)
}

type serverSettings struct {
	vendorLists map[int]string
}

// mockServer returns a handler which returns the given response for each global vendor list version.
//
// If the "version" query param doesn't exist, it returns a 400.
//
// If the "version" query param points to a version which doesn't exist, it returns a 404.
func mockServer(settings serverSettings) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		vendorListVersion := req.URL.Query().Get("version")
		vendorListVersionInt, err := strconv.Atoi(vendorListVersion)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Request had invalid version: " + vendorListVersion))
			return
		}
		response, ok := settings.vendorLists[vendorListVersionInt]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Version not found: " + vendorListVersion))
			return
		}
		w.Write([]byte(response))
	}
}
