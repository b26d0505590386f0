package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validator "github.com/asaskevich/govalidator"
	"github.com/golang/glog"
	"github.com/prebid/go-gdpr/consentconstants"
	"github.com/spf13/viper"

	"github.com/prebid/prebid-privacy-server/errortypes"
)

// Configuration specifies the static application config.
type Configuration struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	AdminPort      int    `mapstructure:"admin_port"`
	EnableGzip     bool   `mapstructure:"enable_gzip"`
	StatusResponse string `mapstructure:"status_response"`

	GDPR    GDPR    `mapstructure:"gdpr"`
	Metrics Metrics `mapstructure:"metrics"`
	Privacy Privacy `mapstructure:"privacy"`

	// Accounts holds per publisher overrides of the host GDPR config, keyed by account id.
	Accounts map[string]*Account `mapstructure:"accounts"`
	// BidderGVLIDs maps bidder names to their Global Vendor List id.
	BidderGVLIDs map[string]uint16 `mapstructure:"bidder_gvl_ids"`
}

type GDPR struct {
	Enabled      bool         `mapstructure:"enabled"`
	HostVendorID int          `mapstructure:"host_vendor_id"`
	DefaultValue string       `mapstructure:"default_value"`
	Timeouts     GDPRTimeouts `mapstructure:"timeouts_ms"`
	// EEACountries (EEA = European Economic Area) are a list of countries where we should assume GDPR applies.
	// If the gdpr flag is unset in a request, but geo.country is set, we will assume GDPR applies if and only
	// if the country matches one on this list. If both the GDPR flag and country are not set, we default
	// to DefaultValue
	EEACountries    []string            `mapstructure:"eea_countries"`
	EEACountriesMap map[string]struct{} `mapstructure:"-"`
	VendorLists     VendorLists         `mapstructure:"vendorlist"`
	TCF2            TCF2                `mapstructure:"tcf2"`
}

func (cfg *GDPR) validate(v *viper.Viper, errs []error) []error {
	if !v.IsSet("gdpr.default_value") {
		errs = append(errs, fmt.Errorf("gdpr.default_value is required and must be specified"))
	} else if cfg.DefaultValue != "0" && cfg.DefaultValue != "1" {
		errs = append(errs, fmt.Errorf("gdpr.default_value must be 0 or 1"))
	}
	if cfg.HostVendorID < 0 || cfg.HostVendorID > 0xffff {
		errs = append(errs, fmt.Errorf("gdpr.host_vendor_id must be in the range [0, %d]. Got %d", 0xffff, cfg.HostVendorID))
	}
	if cfg.HostVendorID == 0 {
		glog.Warning("gdpr.host_vendor_id was not specified. Host company GDPR checks will be skipped.")
	}
	if cfg.Timeouts.ActiveVendorlistFetch <= 0 {
		errs = append(errs, fmt.Errorf("gdpr.timeouts_ms.active_vendorlist_fetch must be positive. Got %d", cfg.Timeouts.ActiveVendorlistFetch))
	}
	errs = cfg.VendorLists.validate(errs)
	errs = cfg.TCF2.validate(errs)
	return errs
}

type GDPRTimeouts struct {
	ActiveVendorlistFetch int `mapstructure:"active_vendorlist_fetch"`
}

// VendorLists configures the vendor list store of every GVL generation.
type VendorLists struct {
	CacheDir               string `mapstructure:"cache_dir"`
	RefreshIntervalSeconds int    `mapstructure:"refresh_interval_seconds"`
	// PersistWorkers and PersistQueueSize size the pool that writes fetched lists to CacheDir.
	PersistWorkers   int              `mapstructure:"persist_workers"`
	PersistQueueSize int              `mapstructure:"persist_queue_size"`
	V2               VendorListConfig `mapstructure:"v2"`
	V3               VendorListConfig `mapstructure:"v3"`
}

func (cfg *VendorLists) validate(errs []error) []error {
	if cfg.CacheDir == "" {
		errs = append(errs, errors.New("gdpr.vendorlist.cache_dir must be specified"))
	}
	if cfg.RefreshIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("gdpr.vendorlist.refresh_interval_seconds must be >= 0. Got %d", cfg.RefreshIntervalSeconds))
	}
	if cfg.PersistWorkers <= 0 {
		errs = append(errs, fmt.Errorf("gdpr.vendorlist.persist_workers must be positive. Got %d", cfg.PersistWorkers))
	}
	if cfg.PersistQueueSize < 0 {
		errs = append(errs, fmt.Errorf("gdpr.vendorlist.persist_queue_size must be >= 0. Got %d", cfg.PersistQueueSize))
	}
	errs = cfg.V2.validate("gdpr.vendorlist.v2", errs)
	errs = cfg.V3.validate("gdpr.vendorlist.v3", errs)
	return errs
}

// VendorListVersionMacro is substituted with the requested version in EndpointTemplate.
const VendorListVersionMacro = "{VERSION}"

type VendorListConfig struct {
	// EndpointTemplate is the URL a version is fetched from, with {VERSION} in place of the version number.
	EndpointTemplate string `mapstructure:"endpoint_template"`
	// Deprecated generations are never fetched. The fallback list is served for every version.
	Deprecated   bool        `mapstructure:"deprecated"`
	FallbackPath string      `mapstructure:"fallback_path"`
	Retry        RetryPolicy `mapstructure:"retry_policy"`
}

func (cfg *VendorListConfig) validate(prefix string, errs []error) []error {
	if cfg.Deprecated {
		if cfg.FallbackPath == "" {
			errs = append(errs, fmt.Errorf("%s.fallback_path must be specified when %s.deprecated is true", prefix, prefix))
		}
		return errs
	}
	if !strings.Contains(cfg.EndpointTemplate, VendorListVersionMacro) {
		errs = append(errs, fmt.Errorf("%s.endpoint_template must contain the %s macro. Got %s", prefix, VendorListVersionMacro, cfg.EndpointTemplate))
	} else {
		sample := strings.Replace(cfg.EndpointTemplate, VendorListVersionMacro, "1", -1)
		if ok := validator.IsURL(sample) && validator.IsRequestURL(sample); !ok {
			errs = append(errs, fmt.Errorf("%s.endpoint_template must be a valid URL. Got %s", prefix, cfg.EndpointTemplate))
		}
	}
	return cfg.Retry.validate(prefix+".retry_policy", errs)
}

const (
	RetryPolicyExponential = "exponential"
	RetryPolicyNone        = "none"
)

// RetryPolicy controls how often a vendor list version that failed to download may be fetched again.
type RetryPolicy struct {
	Type        string  `mapstructure:"type"`
	DelayMs     int     `mapstructure:"delay_ms"`
	MaxDelayMs  int     `mapstructure:"max_delay_ms"`
	Factor      float64 `mapstructure:"factor"`
	Jitter      float64 `mapstructure:"jitter"`
	MaxAttempts int     `mapstructure:"max_attempts"`
}

func (cfg *RetryPolicy) validate(prefix string, errs []error) []error {
	switch cfg.Type {
	case RetryPolicyNone:
		return errs
	case RetryPolicyExponential:
	default:
		return append(errs, fmt.Errorf("%s.type must be one of [%s, %s]. Got %s", prefix, RetryPolicyExponential, RetryPolicyNone, cfg.Type))
	}
	if cfg.DelayMs <= 0 {
		errs = append(errs, fmt.Errorf("%s.delay_ms must be positive. Got %d", prefix, cfg.DelayMs))
	}
	if cfg.MaxDelayMs < cfg.DelayMs {
		errs = append(errs, fmt.Errorf("%s.max_delay_ms must be >= %s.delay_ms. Got %d", prefix, prefix, cfg.MaxDelayMs))
	}
	if cfg.Factor < 1 {
		errs = append(errs, fmt.Errorf("%s.factor must be >= 1. Got %s", prefix, strconv.FormatFloat(cfg.Factor, 'f', -1, 64)))
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		errs = append(errs, fmt.Errorf("%s.jitter must be in the range [0, 1). Got %s", prefix, strconv.FormatFloat(cfg.Jitter, 'f', -1, 64)))
	}
	if cfg.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("%s.max_attempts must be >= 0. Got %d", prefix, cfg.MaxAttempts))
	}
	return errs
}

type TCF2EnforcementAlgo int

const (
	TCF2UndefinedEnforcement TCF2EnforcementAlgo = iota
	TCF2NoEnforcement
	TCF2BasicEnforcement
	TCF2FullEnforcement
)

const (
	TCF2EnforceAlgoNo    = "no"
	TCF2EnforceAlgoBasic = "basic"
	TCF2EnforceAlgoFull  = "full"
)

// ParseEnforcementAlgo maps an enforce_algo config value to its enforcement type.
func ParseEnforcementAlgo(algo string) TCF2EnforcementAlgo {
	switch algo {
	case TCF2EnforceAlgoNo:
		return TCF2NoEnforcement
	case TCF2EnforceAlgoBasic:
		return TCF2BasicEnforcement
	case TCF2EnforceAlgoFull:
		return TCF2FullEnforcement
	}
	return TCF2UndefinedEnforcement
}

func (a TCF2EnforcementAlgo) String() string {
	switch a {
	case TCF2NoEnforcement:
		return TCF2EnforceAlgoNo
	case TCF2BasicEnforcement:
		return TCF2EnforceAlgoBasic
	case TCF2FullEnforcement:
		return TCF2EnforceAlgoFull
	}
	return "undefined"
}

// TCF2 defines the TCF2 specific configurations for GDPR
type TCF2 struct {
	Enabled   bool        `mapstructure:"enabled"`
	Purpose1  TCF2Purpose `mapstructure:"purpose1"`
	Purpose2  TCF2Purpose `mapstructure:"purpose2"`
	Purpose3  TCF2Purpose `mapstructure:"purpose3"`
	Purpose4  TCF2Purpose `mapstructure:"purpose4"`
	Purpose5  TCF2Purpose `mapstructure:"purpose5"`
	Purpose6  TCF2Purpose `mapstructure:"purpose6"`
	Purpose7  TCF2Purpose `mapstructure:"purpose7"`
	Purpose8  TCF2Purpose `mapstructure:"purpose8"`
	Purpose9  TCF2Purpose `mapstructure:"purpose9"`
	Purpose10 TCF2Purpose `mapstructure:"purpose10"`
	// Map of purpose configs for easy purpose lookup
	PurposeConfigs      map[consentconstants.Purpose]*TCF2Purpose
	SpecialFeature1     TCF2SpecialFeature      `mapstructure:"special_feature1"`
	PurposeOneTreatment TCF2PurposeOneTreatment `mapstructure:"purpose_one_treatment"`
}

func (t *TCF2) validate(errs []error) []error {
	for i := 1; i <= 10; i++ {
		p := t.PurposeConfigs[consentconstants.Purpose(i)]
		if p == nil {
			continue
		}
		if p.EnforceAlgoID == TCF2UndefinedEnforcement {
			errs = append(errs, fmt.Errorf("gdpr.tcf2.purpose%d.enforce_algo must be one of [%s, %s, %s]. Got %s", i, TCF2EnforceAlgoNo, TCF2EnforceAlgoBasic, TCF2EnforceAlgoFull, p.EnforceAlgo))
		}
	}
	return errs
}

// PurposeEnforcementAlgo returns the enforcement algorithm for a given purpose
func (t *TCF2) PurposeEnforcementAlgo(purpose consentconstants.Purpose) TCF2EnforcementAlgo {
	if c, exists := t.PurposeConfigs[purpose]; exists {
		return c.EnforceAlgoID
	}
	return TCF2FullEnforcement
}

// PurposeEnforcingVendors checks if enforcing vendors is turned on for a given purpose. With enforcing vendors
// turned on, the GDPR full enforcement algorithm considers the GVL when determining legal basis; otherwise
// it's skipped.
func (t *TCF2) PurposeEnforcingVendors(purpose consentconstants.Purpose) bool {
	if c, exists := t.PurposeConfigs[purpose]; exists {
		return c.EnforceVendors
	}
	return false
}

// PurposeVendorExceptions returns the vendor exception map for a given purpose.
func (t *TCF2) PurposeVendorExceptions(purpose consentconstants.Purpose) map[string]struct{} {
	c, exists := t.PurposeConfigs[purpose]
	if exists && c.VendorExceptionMap != nil {
		return c.VendorExceptionMap
	}
	return make(map[string]struct{})
}

// FeatureOneEnforced checks if special feature one is enforced. If it is enforced, PBS will determine whether geo
// information may be passed through in the bid request.
func (t *TCF2) FeatureOneEnforced() bool {
	return t.SpecialFeature1.Enforce
}

// FeatureOneVendorException checks if the specified bidder is considered a vendor exception for special feature one.
func (t *TCF2) FeatureOneVendorException(bidder string) bool {
	_, found := t.SpecialFeature1.VendorExceptionMap[bidder]
	return found
}

// PurposeOneTreatmentEnabled checks if purpose one treatment is enabled.
func (t *TCF2) PurposeOneTreatmentEnabled() bool {
	return t.PurposeOneTreatment.Enabled
}

// PurposeOneTreatmentAccessAllowed checks if purpose one treatment access is allowed.
func (t *TCF2) PurposeOneTreatmentAccessAllowed() bool {
	return t.PurposeOneTreatment.AccessAllowed
}

// TCF2Purpose defines the enforcement of a single TCF purpose.
type TCF2Purpose struct {
	EnforceAlgo string `mapstructure:"enforce_algo"`
	// Integer representation of enforcement algo for performance improvement on compares
	EnforceAlgoID      TCF2EnforcementAlgo
	EnforceVendors     bool     `mapstructure:"enforce_vendors"`
	VendorExceptions   []string `mapstructure:"vendor_exceptions"`
	VendorExceptionMap map[string]struct{}
}

// TCF2SpecialFeature defines the enforcement of special feature 1 (precise geolocation).
type TCF2SpecialFeature struct {
	Enforce            bool     `mapstructure:"enforce"`
	VendorExceptions   []string `mapstructure:"vendor_exceptions"`
	VendorExceptionMap map[string]struct{}
}

// TCF2PurposeOneTreatment controls how a consent string flagged with purpose one treatment is read.
type TCF2PurposeOneTreatment struct {
	Enabled       bool `mapstructure:"enabled"`
	AccessAllowed bool `mapstructure:"access_allowed"`
}

// Privacy holds the settings used when scrubbing bid requests for restricted bidders.
type Privacy struct {
	IPv4 IPMasking `mapstructure:"ipv4"`
	IPv6 IPMasking `mapstructure:"ipv6"`
}

// IPMasking sets how many leading bits of a masked ip address are kept.
type IPMasking struct {
	AnonKeepBits int `mapstructure:"anon_keep_bits"`
}

func (cfg *Privacy) validate(errs []error) []error {
	if cfg.IPv4.AnonKeepBits < 0 || cfg.IPv4.AnonKeepBits > 32 {
		errs = append(errs, fmt.Errorf("privacy.ipv4.anon_keep_bits must be in the range [0, 32]. Got %d", cfg.IPv4.AnonKeepBits))
	}
	if cfg.IPv6.AnonKeepBits < 0 || cfg.IPv6.AnonKeepBits > 128 {
		errs = append(errs, fmt.Errorf("privacy.ipv6.anon_keep_bits must be in the range [0, 128]. Got %d", cfg.IPv6.AnonKeepBits))
	}
	return errs
}

type Metrics struct {
	Influxdb   InfluxMetrics     `mapstructure:"influxdb"`
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
	Disabled   DisabledMetrics   `mapstructure:"disabled_metrics"`
}

type DisabledMetrics struct {
	// True if we want to stop collecting per bidder GDPR request blocked metrics
	AdapterGDPRRequestBlocked bool `mapstructure:"adapter_gdpr_request_blocked"`
}

func (cfg *Metrics) validate(errs []error) []error {
	return cfg.Prometheus.validate(errs)
}

type InfluxMetrics struct {
	Host               string `mapstructure:"host"`
	Database           string `mapstructure:"database"`
	Measurement        string `mapstructure:"measurement"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	AlignTimestamps    bool   `mapstructure:"align_timestamps"`
	MetricSendInterval int    `mapstructure:"metric_send_interval"`
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

func (cfg *PrometheusMetrics) validate(errs []error) []error {
	if cfg.Port > 0 && cfg.TimeoutMillisRaw <= 0 {
		errs = append(errs, fmt.Errorf("metrics.prometheus.timeout_ms must be positive if metrics.prometheus.port is defined. Got timeout=%d and port=%d", cfg.TimeoutMillisRaw, cfg.Port))
	}
	return errs
}

func (cfg *Configuration) validate(v *viper.Viper) []error {
	var errs []error
	errs = cfg.GDPR.validate(v, errs)
	errs = cfg.Metrics.validate(errs)
	errs = cfg.Privacy.validate(errs)
	for id, account := range cfg.Accounts {
		errs = account.GDPR.validate("accounts."+id+".gdpr", errs)
	}
	if cfg.Port == cfg.AdminPort {
		errs = append(errs, fmt.Errorf("port and admin_port must differ. Got %d", cfg.Port))
	}
	return errs
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}

	// To look for a request's country in the EEA countries list, we store it as a map
	c.GDPR.EEACountriesMap = make(map[string]struct{}, len(c.GDPR.EEACountries))
	for _, country := range c.GDPR.EEACountries {
		c.GDPR.EEACountriesMap[strings.ToUpper(country)] = struct{}{}
	}

	c.GDPR.TCF2.PurposeConfigs = purposeConfigs(&c.GDPR.TCF2)
	for _, pc := range c.GDPR.TCF2.PurposeConfigs {
		pc.EnforceAlgoID = ParseEnforcementAlgo(pc.EnforceAlgo)
		pc.VendorExceptionMap = stringSet(pc.VendorExceptions)
	}
	c.GDPR.TCF2.SpecialFeature1.VendorExceptionMap = stringSet(c.GDPR.TCF2.SpecialFeature1.VendorExceptions)

	for id, account := range c.Accounts {
		if account == nil {
			delete(c.Accounts, id)
			continue
		}
		account.ID = id
		account.GDPR.resolve()
	}

	if errs := c.validate(v); len(errs) > 0 {
		return &c, errortypes.NewAggregateErrors("invalid configuration", errs)
	}

	return &c, nil
}

func purposeConfigs(t *TCF2) map[consentconstants.Purpose]*TCF2Purpose {
	return map[consentconstants.Purpose]*TCF2Purpose{
		1:  &t.Purpose1,
		2:  &t.Purpose2,
		3:  &t.Purpose3,
		4:  &t.Purpose4,
		5:  &t.Purpose5,
		6:  &t.Purpose6,
		7:  &t.Purpose7,
		8:  &t.Purpose8,
		9:  &t.Purpose9,
		10: &t.Purpose10,
	}
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// SetupViper sets up viper defaults and reads the config file named filename from the working directory
// or /etc/config. Values can be overridden by environment variables prefixed with PBS_.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("status_response", "")

	v.SetDefault("privacy.ipv4.anon_keep_bits", 24)
	v.SetDefault("privacy.ipv6.anon_keep_bits", 56)

	v.SetDefault("metrics.influxdb.host", "")
	v.SetDefault("metrics.influxdb.database", "")
	v.SetDefault("metrics.influxdb.measurement", "")
	v.SetDefault("metrics.influxdb.username", "")
	v.SetDefault("metrics.influxdb.password", "")
	v.SetDefault("metrics.influxdb.align_timestamps", false)
	v.SetDefault("metrics.influxdb.metric_send_interval", 20)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)
	v.SetDefault("metrics.disabled_metrics.adapter_gdpr_request_blocked", false)

	v.SetDefault("gdpr.enabled", true)
	v.SetDefault("gdpr.host_vendor_id", 0)
	v.SetDefault("gdpr.default_value", "1")
	v.SetDefault("gdpr.timeouts_ms.active_vendorlist_fetch", 1000)
	// Note that this should be kept in sync with the EU list of member states plus the EEA and UK.
	v.SetDefault("gdpr.eea_countries", []string{"ALA", "AUT", "BEL", "BGR", "HRV", "CYP", "CZE", "DNK", "EST",
		"FIN", "FRA", "GUF", "DEU", "GIB", "GRC", "GLP", "GGY", "HUN", "ISL", "IRL", "IMN", "ITA", "JEY", "LVA",
		"LIE", "LTU", "LUX", "MLT", "MTQ", "MYT", "NLD", "NOR", "POL", "PRT", "REU", "ROU", "BLM", "MAF", "SPM",
		"SVK", "SVN", "ESP", "SWE", "GBR"})

	v.SetDefault("gdpr.vendorlist.cache_dir", "/var/tmp/prebid/vendorlist")
	v.SetDefault("gdpr.vendorlist.refresh_interval_seconds", 300)
	v.SetDefault("gdpr.vendorlist.persist_workers", 2)
	v.SetDefault("gdpr.vendorlist.persist_queue_size", 64)
	v.SetDefault("gdpr.vendorlist.v2.endpoint_template", "https://vendor-list.consensu.org/v2/archives/vendor-list-v{VERSION}.json")
	v.SetDefault("gdpr.vendorlist.v2.deprecated", false)
	v.SetDefault("gdpr.vendorlist.v2.fallback_path", "")
	v.SetDefault("gdpr.vendorlist.v3.endpoint_template", "https://vendor-list.consensu.org/v3/archives/vendor-list-v{VERSION}.json")
	v.SetDefault("gdpr.vendorlist.v3.deprecated", false)
	v.SetDefault("gdpr.vendorlist.v3.fallback_path", "")
	for _, gen := range []string{"v2", "v3"} {
		prefix := "gdpr.vendorlist." + gen + ".retry_policy."
		v.SetDefault(prefix+"type", RetryPolicyExponential)
		v.SetDefault(prefix+"delay_ms", 60000)
		v.SetDefault(prefix+"max_delay_ms", 600000)
		v.SetDefault(prefix+"factor", 2.0)
		v.SetDefault(prefix+"jitter", 0.1)
		v.SetDefault(prefix+"max_attempts", 0)
	}

	v.SetDefault("gdpr.tcf2.enabled", true)
	for i := 1; i <= 10; i++ {
		prefix := fmt.Sprintf("gdpr.tcf2.purpose%d.", i)
		v.SetDefault(prefix+"enforce_algo", TCF2EnforceAlgoFull)
		v.SetDefault(prefix+"enforce_vendors", true)
		v.SetDefault(prefix+"vendor_exceptions", []string{})
	}
	v.SetDefault("gdpr.tcf2.special_feature1.enforce", true)
	v.SetDefault("gdpr.tcf2.special_feature1.vendor_exceptions", []string{})
	v.SetDefault("gdpr.tcf2.purpose_one_treatment.enabled", true)
	v.SetDefault("gdpr.tcf2.purpose_one_treatment.access_allowed", true)

	v.SetDefault("bidder_gvl_ids", map[string]uint16{})

	v.SetEnvPrefix("PBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		glog.Infof("No config file loaded: %v", err)
	}
}
