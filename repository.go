package growthbook

import (
	"context"
	"time"
)

// RefreshOptions controls one call to RefreshFeatures (spec §4.D, §4.H).
type RefreshOptions struct {
	// Timeout bounds how long RefreshFeatures waits for a fresh fetch
	// before returning early. Zero means wait indefinitely. The underlying
	// fetch is never cancelled by a timeout — it keeps running so that
	// other callers coalesced onto it, and the cache, still benefit from
	// its result (spec §4.D "promiseTimeout" note).
	Timeout time.Duration
	// SkipCache bypasses a fresh cache entry and always performs a fetch.
	SkipCache bool
	// AllowStale permits returning a stale cache entry without triggering
	// a synchronous fetch (a background refresh is still kicked off).
	AllowStale bool
	// UpdateInstance applies the resulting Payload to the calling instance
	// directly, in addition to whatever the subscription fan-out does.
	UpdateInstance bool
	// BackgroundSync, when explicitly set to false, latches backgroundSync
	// off process-wide and tears down every streaming channel (spec §4.H).
	// It never turns sync back on — only ConfigureCache can do that.
	BackgroundSync *bool
}

// RefreshFeatures fetches the latest Payload for inst, using and populating
// the shared process-wide cache (spec §4.D), grounded on the teacher's
// repoRefreshFeatures/fetchFeaturesWithCache (repository.go). It returns a
// nil error in every case: network, parse and context-cancellation failures
// are logged by the fetcher and resolve as an empty Payload, and decryption
// or parse failures while applying a payload to inst are reported through
// inst.Log, not returned.
func RefreshFeatures(ctx context.Context, inst Instance, opts RefreshOptions) error {
	if opts.BackgroundSync != nil && !*opts.BackgroundSync {
		setBackgroundSync(false)
	}

	ensureHydrated(ctx)

	key := keyFor(inst)
	now := time.Now()
	existing := cache.Get(key)

	var payload *Payload
	var err error

	if existing != nil && !opts.SkipCache && (opts.AllowStale || existing.StaleAt.After(now)) {
		payload = existing.Data
		streams.setSSESupported(key, existing.SSE)
		if existing.StaleAt.Before(now) {
			go fetchAndIngest(detachedContext(ctx), inst)
		} else {
			startStreaming(key, streamAPIHost(inst), inst.GetClientKey())
		}
	} else if opts.Timeout == 0 {
		payload, err = fetchAndIngest(ctx, inst)
	} else {
		type result struct {
			payload *Payload
			err     error
		}
		ch := make(chan result, 1)
		go func() {
			p, e := fetchAndIngest(detachedContext(ctx), inst)
			ch <- result{p, e}
		}()
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		select {
		case r := <-ch:
			payload, err = r.payload, r.err
		case <-timer.C:
			payload, err = nil, nil
		}
	}

	if opts.UpdateInstance && payload != nil {
		applyInstance(inst, payload)
	}
	return err
}

// detachedContext keeps a fetch running to completion after a timed-out
// caller gives up on it (spec §4.D): it carries the parent's values but
// none of its cancellation, so other callers coalesced onto the same
// request, and the cache, still get the result.
func detachedContext(parent context.Context) context.Context {
	return context.WithoutCancel(parent)
}

// Subscribe registers inst for automatic feature/experiment updates:
// whenever ingest installs new data for inst's repository key, inst is
// updated transparently (spec §4.H "subscribe").
func Subscribe(inst Instance) {
	subs.subscribe(keyFor(inst), inst)
}

// Unsubscribe removes inst's subscription (spec §4.H "unsubscribe").
func Unsubscribe(inst Instance) {
	subs.unsubscribe(inst)
}

// ClearCache drops every cached entry, streaming channel and subscription,
// and persists the now-empty cache (spec §4.B, §8 invariant 5). The
// persistent store's hydration flag is reset so the next RefreshFeatures
// call re-hydrates from storage. A fetch already in flight is not dropped:
// callers arriving meanwhile still share it, and it ingests its result into
// the cleared cache when it completes.
func ClearCache() {
	cache.Clear()
	resetStreamRegistry()
	subs.clear()
	resetHydrationFlag()
	persistCache()
}
