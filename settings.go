package growthbook

import (
	"sync"
	"time"
)

const (
	defaultStaleTTL     = 60 * time.Second
	defaultCacheKeyName = "gbFeaturesCache"
)

// CacheSettings is the set of global settings ConfigureCache merges in
// (spec §3 "Global settings", §4.H).
type CacheSettings struct {
	// StaleTTL is how long a cache entry stays fresh after ingest. Zero
	// means "leave the current value unchanged".
	StaleTTL time.Duration
	// CacheKeyName is the persistent-store record name. Empty means "leave
	// the current value unchanged".
	CacheKeyName string
	// BackgroundSync enables or disables streaming channel creation
	// process-wide. nil means "leave the current value unchanged".
	BackgroundSync *bool
}

type settings struct {
	mu             sync.RWMutex
	staleTTL       time.Duration
	cacheKeyName   string
	backgroundSync bool
}

var globalSettings = &settings{
	staleTTL:       defaultStaleTTL,
	cacheKeyName:   defaultCacheKeyName,
	backgroundSync: true,
}

type settingsValues struct {
	staleTTL       time.Duration
	cacheKeyName   string
	backgroundSync bool
}

func settingsSnapshot() settingsValues {
	globalSettings.mu.RLock()
	defer globalSettings.mu.RUnlock()
	return settingsValues{
		staleTTL:       globalSettings.staleTTL,
		cacheKeyName:   globalSettings.cacheKeyName,
		backgroundSync: globalSettings.backgroundSync,
	}
}

func setBackgroundSync(enabled bool) {
	globalSettings.mu.Lock()
	globalSettings.backgroundSync = enabled
	globalSettings.mu.Unlock()
	if !enabled {
		teardownAllChannels()
	}
}

// ConfigureCache merges partial settings into the package-wide cache
// configuration (spec §4.H, §4.I). Disabling BackgroundSync tears down
// every live streaming channel immediately.
func ConfigureCache(opts CacheSettings) {
	globalSettings.mu.Lock()
	if opts.StaleTTL != 0 {
		globalSettings.staleTTL = opts.StaleTTL
	}
	if opts.CacheKeyName != "" {
		globalSettings.cacheKeyName = opts.CacheKeyName
	}
	disableSync := opts.BackgroundSync != nil && !*opts.BackgroundSync
	if opts.BackgroundSync != nil {
		globalSettings.backgroundSync = *opts.BackgroundSync
	}
	globalSettings.mu.Unlock()

	if disableSync {
		teardownAllChannels()
	}
}
