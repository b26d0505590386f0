package router

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/alitto/pond"
	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/endpoints"
	"github.com/prebid/prebid-privacy-server/gdpr"
	"github.com/prebid/prebid-privacy-server/metrics"
	metricsConf "github.com/prebid/prebid-privacy-server/metrics/config"
	"github.com/prebid/prebid-privacy-server/privacy"
	"github.com/prebid/prebid-privacy-server/util/randomutil"
	"github.com/prebid/prebid-privacy-server/util/task"
)

const (
	generationV2 = "v2"
	generationV3 = "v3"
)

// SupportCORS wraps the handler so that browsers on any publisher domain may call it.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

type Router struct {
	*httprouter.Router
	Admin         *httprouter.Router
	MetricsEngine *metricsConf.DetailedMetricsEngine
	Shutdown      func()
}

// New builds the vendor list stores and the enforcement service from the configuration and registers the public
// and admin endpoints that serve them.
func New(cfg *config.Configuration, version, revision string) (r *Router, err error) {
	r = &Router{
		Router: httprouter.New(),
		Admin:  httprouter.New(),
	}

	r.MetricsEngine = metricsConf.NewMetricsEngine(cfg, []string{generationV2, generationV3})
	r.MetricsEngine.StartInfluxReporting(cfg.Metrics.Influxdb)

	vendorListClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	fetchTimeout := time.Duration(cfg.GDPR.Timeouts.ActiveVendorlistFetch) * time.Millisecond

	persistPool := pond.New(cfg.GDPR.VendorLists.PersistWorkers, cfg.GDPR.VendorLists.PersistQueueSize,
		pond.PanicHandler(func(p interface{}) {
			glog.Errorf("Vendor list persist task panicked: %v", p)
		}))

	v2Store, err := newVendorListStore(generationV2, cfg.GDPR.VendorLists.V2, cfg, fetchTimeout, vendorListClient, persistPool, r.MetricsEngine)
	if err != nil {
		persistPool.Stop()
		return nil, err
	}
	v3Store, err := newVendorListStore(generationV3, cfg.GDPR.VendorLists.V3, cfg, fetchTimeout, vendorListClient, persistPool, r.MetricsEngine)
	if err != nil {
		persistPool.Stop()
		return nil, err
	}

	var refreshTask *task.TickerTask
	if cfg.GDPR.VendorLists.RefreshIntervalSeconds > 0 {
		refreshTask = task.NewTickerTaskWithOptions(task.Options{
			Name:           "vendor list refresh",
			Interval:       time.Duration(cfg.GDPR.VendorLists.RefreshIntervalSeconds) * time.Second,
			Runner:         gdpr.NewVendorListRefresher(fetchTimeout, v2Store, v3Store),
			SkipInitialRun: true,
		})
		refreshTask.Start()
	}

	r.Shutdown = func() {
		if refreshTask != nil {
			refreshTask.Stop()
		}
		persistPool.StopAndWait()
	}

	var enforcer gdpr.Enforcer = gdpr.AlwaysAllow{}
	if cfg.GDPR.Enabled {
		enforcer = gdpr.NewTCF2Service(cfg.GDPR, cfg.Accounts, cfg.BidderGVLIDs, gdpr.NewVendorListRouter(v2Store, v3Store), r.MetricsEngine)
	} else {
		glog.Info("GDPR enforcement is disabled, every bidder is allowed every activity")
	}

	r.POST("/tcf2/enforcement", endpoints.NewEnforcementEndpoint(enforcer, privacy.NewScrubber(cfg.Privacy), r.MetricsEngine))
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))

	stores := map[string]gdpr.VendorListFetcher{
		generationV2: v2Store,
		generationV3: v3Store,
	}
	r.Admin.GET("/vendorlist/:generation/:version", endpoints.NewVendorListEndpoint(stores, r.MetricsEngine))
	r.Admin.HandlerFunc("GET", "/version", endpoints.NewVersionEndpoint(version, revision))

	return r, nil
}

func newVendorListStore(generation string, listCfg config.VendorListConfig, cfg *config.Configuration, fetchTimeout time.Duration, client *http.Client, pool gdpr.WorkerPool, metricsEngine metrics.MetricsEngine) (*gdpr.VendorListStore, error) {
	throttler := gdpr.NewFetchThrottler(gdpr.NewRetryPolicy(listCfg.Retry, randomutil.RandomNumberGenerator{}), clock.New())

	store, err := gdpr.NewVendorListStore(generation, listCfg, filepath.Join(cfg.GDPR.VendorLists.CacheDir, generation), fetchTimeout, gdpr.VendorListStoreDeps{
		Client:        client,
		Throttler:     throttler,
		Pool:          pool,
		MetricsEngine: metricsEngine,
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to create the %s vendor list store: %v", generation, err)
	}
	return store, nil
}
