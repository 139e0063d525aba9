package config

import (
	"log"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "AUCTION_MONITOR_CONFIG"
	databasePathEnv  = "AUCTION_DB_PATH"
	haURLEnv         = "HA_URL"
	haTokenEnv       = "HA_TOKEN"
	haServiceEnv     = "HA_SERVICE"
	checkIntervalEnv = "CHECK_INTERVAL_MINUTES"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Monitor       MonitorConfig      `yaml:"monitor"`
	Notifications NotificationConfig `yaml:"notifications"`
	Windows       WindowSetConfig    `yaml:"notificationWindows"`
	Cache         CacheConfig        `yaml:"cache"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes the SQLite storage location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MonitorConfig defines the sync cadence and urgency policy.
type MonitorConfig struct {
	CheckIntervalMinutes   int `yaml:"checkIntervalMinutes"`
	UrgentThresholdMinutes int `yaml:"urgentThresholdMinutes"`
	MaxAuctionsPerSearch   int `yaml:"maxAuctionsPerSearch"`
}

// CheckInterval returns the sync interval as a duration.
func (m MonitorConfig) CheckInterval() time.Duration {
	return time.Duration(m.CheckIntervalMinutes) * time.Minute
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	HomeAssistant HomeAssistantConfig `yaml:"homeAssistant"`
}

// HomeAssistantConfig wires all data required to call the notify service.
type HomeAssistantConfig struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Service string `yaml:"service"`
}

// WindowConfig is an hour range for one day type. Start is inclusive; the
// end hour marks the cutoff (a send at the end hour or later is gated).
type WindowConfig struct {
	StartHour int `yaml:"startHour"`
	EndHour   int `yaml:"endHour"`
}

// WindowSetConfig holds the weekday and weekend notification windows.
type WindowSetConfig struct {
	Weekday WindowConfig `yaml:"weekday"`
	Weekend WindowConfig `yaml:"weekend"`
}

// CacheConfig sizes the two cache tiers. The memory tier coalesces reads
// between cycles; the store tier persists stripped records for days.
type CacheConfig struct {
	MemorySizeMB     int `yaml:"memorySizeMB"`
	MemoryTTLMinutes int `yaml:"memoryTtlMinutes"`
	StoreTTLMinutes  int `yaml:"storeTtlMinutes"`
}

// MemoryTTL returns the in-memory cache TTL.
func (c CacheConfig) MemoryTTL() time.Duration {
	return time.Duration(c.MemoryTTLMinutes) * time.Minute
}

// StoreTTL returns the durable cache TTL.
func (c CacheConfig) StoreTTL() time.Duration {
	return time.Duration(c.StoreTTLMinutes) * time.Minute
}

// ScraperConfig tunes the outbound fetch behavior.
type ScraperConfig struct {
	BaseURL             string  `yaml:"baseUrl"`
	UserAgent           string  `yaml:"userAgent"`
	RequestDelaySeconds float64 `yaml:"requestDelaySeconds"`
	TimeoutSeconds      int     `yaml:"timeoutSeconds"`
}

// RequestDelay returns the mandatory pause between per-term fetches.
func (s ScraperConfig) RequestDelay() time.Duration {
	return time.Duration(s.RequestDelaySeconds * float64(time.Second))
}

// Timeout returns the HTTP client timeout for scraping.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides on top of defaults.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(haURLEnv); v != "" {
		c.Notifications.HomeAssistant.URL = v
	}
	if v := os.Getenv(haTokenEnv); v != "" {
		c.Notifications.HomeAssistant.Token = v
	}
	if v := os.Getenv(haServiceEnv); v != "" {
		c.Notifications.HomeAssistant.Service = v
	}

	if v := os.Getenv(checkIntervalEnv); v != "" {
		if minutes, err := strconv.Atoi(v); err != nil || minutes < 1 {
			log.Printf("config: invalid %s=%q, keeping %d", checkIntervalEnv, v, c.Monitor.CheckIntervalMinutes)
		} else {
			c.Monitor.CheckIntervalMinutes = minutes
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Monitor.CheckIntervalMinutes > 0 {
		base.Monitor.CheckIntervalMinutes = override.Monitor.CheckIntervalMinutes
	}
	if override.Monitor.UrgentThresholdMinutes > 0 {
		base.Monitor.UrgentThresholdMinutes = override.Monitor.UrgentThresholdMinutes
	}
	if override.Monitor.MaxAuctionsPerSearch > 0 {
		base.Monitor.MaxAuctionsPerSearch = override.Monitor.MaxAuctionsPerSearch
	}

	if override.Notifications.HomeAssistant.URL != "" {
		base.Notifications.HomeAssistant.URL = override.Notifications.HomeAssistant.URL
	}
	if override.Notifications.HomeAssistant.Token != "" {
		base.Notifications.HomeAssistant.Token = override.Notifications.HomeAssistant.Token
	}
	if override.Notifications.HomeAssistant.Service != "" {
		base.Notifications.HomeAssistant.Service = override.Notifications.HomeAssistant.Service
	}

	if override.Windows.Weekday.EndHour > 0 {
		base.Windows.Weekday = override.Windows.Weekday
	}
	if override.Windows.Weekend.EndHour > 0 {
		base.Windows.Weekend = override.Windows.Weekend
	}

	if override.Cache.MemorySizeMB > 0 {
		base.Cache.MemorySizeMB = override.Cache.MemorySizeMB
	}
	if override.Cache.MemoryTTLMinutes > 0 {
		base.Cache.MemoryTTLMinutes = override.Cache.MemoryTTLMinutes
	}
	if override.Cache.StoreTTLMinutes > 0 {
		base.Cache.StoreTTLMinutes = override.Cache.StoreTTLMinutes
	}

	if override.Scraper.BaseURL != "" {
		base.Scraper.BaseURL = override.Scraper.BaseURL
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.RequestDelaySeconds > 0 {
		base.Scraper.RequestDelaySeconds = override.Scraper.RequestDelaySeconds
	}
	if override.Scraper.TimeoutSeconds > 0 {
		base.Scraper.TimeoutSeconds = override.Scraper.TimeoutSeconds
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/auctions.db"},
		Monitor: MonitorConfig{
			CheckIntervalMinutes:   15,
			UrgentThresholdMinutes: 15,
			MaxAuctionsPerSearch:   100,
		},
		Notifications: NotificationConfig{
			HomeAssistant: HomeAssistantConfig{
				URL:     "http://homeassistant.local:8123",
				Service: "notify.mobile_app_your_iphone",
			},
		},
		Windows: WindowSetConfig{
			Weekday: WindowConfig{StartHour: 8, EndHour: 23},
			Weekend: WindowConfig{StartHour: 10, EndHour: 23},
		},
		Cache: CacheConfig{
			MemorySizeMB:     16,
			MemoryTTLMinutes: 5,
			StoreTTLMinutes:  60 * 24 * 7,
		},
		Scraper: ScraperConfig{
			BaseURL:             "https://sikoauktioner.se",
			UserAgent:           "Mozilla/5.0 (compatible; AuctionMonitor/1.0)",
			RequestDelaySeconds: 1.0,
			TimeoutSeconds:      30,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Manager holds the active configuration snapshot. The engine reads one
// snapshot per cycle, so Apply calls (interval, threshold, window changes)
// take effect on the next cycle without a restart and without shared
// mutable fields being read across goroutines.
type Manager struct {
	current atomic.Pointer[Config]
}

// NewManager seeds a manager with an initial configuration.
func NewManager(cfg Config) *Manager {
	m := &Manager{}
	m.current.Store(&cfg)
	return m
}

// Snapshot returns the active configuration by value.
func (m *Manager) Snapshot() Config {
	return *m.current.Load()
}

// Apply swaps in a new snapshot derived from the current one.
func (m *Manager) Apply(mutate func(Config) Config) {
	for {
		old := m.current.Load()
		next := mutate(*old)
		if m.current.CompareAndSwap(old, &next) {
			return
		}
	}
}
