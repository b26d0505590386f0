package gdpr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang/glog"
	"github.com/patrickmn/go-cache"
	"github.com/prebid/go-gdpr/api"
	"golang.org/x/net/context/ctxhttp"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/errortypes"
	"github.com/prebid/prebid-privacy-server/metrics"
)

// VendorListFetcher resolves a vendor list version to its vendor declarations.
type VendorListFetcher interface {
	ForVersion(ctx context.Context, version int) (api.VendorList, error)
}

// WorkerPool runs fire-and-forget tasks.
type WorkerPool interface {
	TrySubmit(task func()) bool
	Stop()
}

const noFallbackForDeprecatedMessage = "No fallback vendorList for deprecated version present"

// VendorListStore serves the vendor lists of one GVL generation. Lists are fetched on demand, kept in memory
// for the life of the process and persisted to disk so they survive restarts.
type VendorListStore struct {
	generation       string
	endpointTemplate string
	deprecated       bool
	fallback         api.VendorList
	cacheDir         string
	fetchTimeout     time.Duration

	client        *http.Client
	throttler     *FetchThrottler
	pool          WorkerPool
	cache         *cache.Cache
	metricsEngine metrics.MetricsEngine

	missingLock sync.Mutex
	missing     map[int]struct{}
}

// VendorListStoreDeps are the collaborators a VendorListStore needs besides its configuration.
type VendorListStoreDeps struct {
	Client        *http.Client
	Throttler     *FetchThrottler
	Pool          WorkerPool
	MetricsEngine metrics.MetricsEngine
}

// NewVendorListStore builds the store for a generation and loads every list previously persisted in cacheDir.
func NewVendorListStore(generation string, cfg config.VendorListConfig, cacheDir string, fetchTimeout time.Duration, deps VendorListStoreDeps) (*VendorListStore, error) {
	store := &VendorListStore{
		generation:       generation,
		endpointTemplate: cfg.EndpointTemplate,
		deprecated:       cfg.Deprecated,
		cacheDir:         cacheDir,
		fetchTimeout:     fetchTimeout,
		client:           deps.Client,
		throttler:        deps.Throttler,
		pool:             deps.Pool,
		cache:            cache.New(cache.NoExpiration, 0),
		metricsEngine:    deps.MetricsEngine,
		missing:          make(map[int]struct{}),
	}

	if cfg.Deprecated && cfg.FallbackPath == "" {
		return nil, &errortypes.InvalidConfig{Message: noFallbackForDeprecatedMessage}
	}
	if cfg.FallbackPath != "" {
		fallback, err := loadFallbackVendorList(cfg.FallbackPath)
		if err != nil {
			return nil, err
		}
		store.fallback = fallback
	}
	if cfg.Deprecated {
		glog.Infof("Vendor list %s is deprecated, serving the fallback list from %s", generation, cfg.FallbackPath)
		return store, nil
	}

	if err := store.warmCache(); err != nil {
		return nil, err
	}
	return store, nil
}

func loadFallbackVendorList(path string) (api.VendorList, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error reading fallback vendor list from %s: %v", path, err)
	}
	list, err := ParseVendorList(contents)
	if err != nil {
		return nil, fmt.Errorf("Error processing fallback vendor list from %s: %v", path, err)
	}
	return list, nil
}

func (s *VendorListStore) warmCache() error {
	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return fmt.Errorf("Error creating vendor list cache directory %s: %v", s.cacheDir, err)
	}

	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		return fmt.Errorf("Error reading vendor list cache directory %s: %v", s.cacheDir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.cacheDir, entry.Name())
		version, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return fmt.Errorf("Vendor list cache file %s is not named after a version", path)
		}
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("Error reading vendor list cache file %s: %v", path, err)
		}
		list, err := ParseVendorList(contents)
		if err != nil {
			return fmt.Errorf("Error processing vendor list cache file %s: %v", path, err)
		}
		if embedded := int(list.Version()); embedded != version {
			glog.Warningf("Vendor list cache file %s contains version %d", path, embedded)
		}
		s.cache.Set(cacheKey(version), list, cache.NoExpiration)
		loaded++
	}
	glog.Infof("Loaded %d %s vendor lists from %s", loaded, s.generation, s.cacheDir)
	return nil
}

// Generation names the GVL generation served by this store.
func (s *VendorListStore) Generation() string {
	return s.generation
}

// ForVersion returns a vendor list version. A version that isn't cached yet is fetched unless
// recent attempts to fetch it failed. The fallback list, if configured, is served when the version is unavailable.
func (s *VendorListStore) ForVersion(ctx context.Context, version int) (api.VendorList, error) {
	if version <= 0 {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("Vendor list version must be positive: %d", version)}
	}

	if s.deprecated {
		return s.serveFallback(), nil
	}

	if list, found := s.cache.Get(cacheKey(version)); found {
		return list.(api.VendorList), nil
	}

	s.markMissing(version)

	if !s.throttler.RegisterFetchAttempt(version) {
		if s.fallback != nil {
			return s.serveFallback(), nil
		}
		return nil, &errortypes.VendorListNotFetched{
			Message: fmt.Sprintf("Vendor list %s version %d not fetched yet, try again later", s.generation, version),
		}
	}

	list, err := s.fetch(ctx, version)
	if err != nil {
		glog.Warningf("Failed to fetch vendor list %s version %d: %v", s.generation, version, err)
		if s.fallback != nil {
			return s.serveFallback(), nil
		}
		return nil, err
	}
	return list, nil
}

// MissingVersions lists the versions that were requested but are not cached yet, in ascending order.
func (s *VendorListStore) MissingVersions() []int {
	s.missingLock.Lock()
	defer s.missingLock.Unlock()

	versions := make([]int, 0, len(s.missing))
	for version := range s.missing {
		versions = append(versions, version)
	}
	sort.Ints(versions)
	return versions
}

func (s *VendorListStore) serveFallback() api.VendorList {
	s.recordFetch(metrics.VendorListFallback)
	return s.fallback
}

func (s *VendorListStore) fetch(ctx context.Context, version int) (api.VendorList, error) {
	url := strings.Replace(s.endpointTemplate, config.VendorListVersionMacro, strconv.Itoa(version), -1)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		s.recordFetch(metrics.VendorListError)
		return nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("Failed to build GET %s request: %v", url, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	resp, err := ctxhttp.Do(ctx, s.client, req)
	if err != nil {
		s.recordFetch(metrics.VendorListError)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &errortypes.Timeout{Message: fmt.Sprintf("GET %s timed out", url)}
		}
		return nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("Error calling GET %s: %v", url, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.recordFetch(metrics.VendorListError)
		return nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("Error reading response body from GET %s: %v", url, err)}
	}

	if resp.StatusCode == http.StatusNotFound {
		s.recordFetch(metrics.VendorListMissing)
		return nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("GET %s returned %d", url, resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		s.recordFetch(metrics.VendorListError)
		return nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("GET %s returned %d", url, resp.StatusCode)}
	}

	list, err := ParseVendorList(body)
	if err != nil {
		s.recordFetch(metrics.VendorListError)
		return nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("GET %s returned an invalid vendor list: %v", url, err)}
	}
	if int(list.Version()) != version {
		glog.Warningf("GET %s returned vendor list version %d", url, list.Version())
	}

	s.cache.Set(cacheKey(version), list, cache.NoExpiration)
	s.throttler.SucceedFetchAttempt(version)
	s.clearMissing(version)
	s.persist(version, body)
	s.recordFetch(metrics.VendorListOK)

	return list, nil
}

// persist saves the raw list to <cacheDir>/<version>.json in the background.
func (s *VendorListStore) persist(version int, body []byte) {
	submitted := s.pool.TrySubmit(func() {
		if err := writeCacheFile(s.cacheDir, version, body); err != nil {
			glog.Errorf("Failed to save vendor list %s version %d: %v", s.generation, version, err)
		}
	})
	if !submitted {
		glog.Warningf("Vendor list %s version %d was not saved to disk: worker pool is full", s.generation, version)
	}
}

func writeCacheFile(dir string, version int, body []byte) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+id.String()+".tmp")
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(dir, strconv.Itoa(version)+".json")); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *VendorListStore) markMissing(version int) {
	s.missingLock.Lock()
	s.missing[version] = struct{}{}
	s.missingLock.Unlock()
}

func (s *VendorListStore) clearMissing(version int) {
	s.missingLock.Lock()
	delete(s.missing, version)
	s.missingLock.Unlock()
}

func (s *VendorListStore) recordFetch(status metrics.VendorListFetchStatus) {
	s.metricsEngine.RecordVendorListFetch(metrics.VendorListLabels{
		Generation: s.generation,
		Status:     status,
	})
}

func cacheKey(version int) string {
	return strconv.Itoa(version)
}
