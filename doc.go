// Package growthbook implements the client-side feature repository shared by
// feature-flag SDK instances within a process: a process-wide cache of
// feature/experiment payloads keyed by repository identity, a
// request-coalescing fetcher, a persistence mirror, an SSE-based streaming
// engine with jittered exponential backoff, and a subscription registry that
// fans new payloads out to every live SDK instance.
//
// The package does not evaluate features or run experiments — that is the
// job of the SDK instance itself, which this package treats as an external
// collaborator exposing the Instance interface. See Instance for the exact
// capability set an SDK instance must provide.
//
// # Error handling
//
// Network and parse errors in the fetcher never surface to callers: they are
// logged and the fetcher resolves as if the server had returned an empty
// payload, so that every caller waiting on a coalesced request still
// completes; a cancelled context is handled the same way. Decryption and
// parse failures while applying a payload to an instance are reported through
// that instance's Log method and are not returned, so RefreshFeatures returns
// a nil error in every case. Subscribe,
// Unsubscribe, ClearCache, ConfigureCache and SetPolyfills never return an
// error or panic.
package growthbook
