package growthbook

import (
	"context"
	"log/slog"
	"net/http"
)

// StreamEvent is a single named server-sent event delivered by an
// EventSource (spec §6's "named events features / features-updated").
type StreamEvent struct {
	Name string
	Data []byte
}

// EventSource is the minimal subset of an SSE client the streaming engine
// needs. It exists so the concrete transport (by default
// github.com/r3labs/sse/v2) can be swapped out in tests and by embedders,
// per spec §4.A ("Environment shims ... fully overridable").
type EventSource interface {
	// Events returns the channel new StreamEvents are delivered on.
	Events() <-chan StreamEvent
	// OnDisconnect registers a callback invoked when the underlying
	// connection drops.
	OnDisconnect(func())
	// Close tears down the connection and the Events channel.
	Close()
}

// EventSourceFactory constructs an EventSource for a streaming URL. headers
// may be nil. The streaming engine calls it with an empty header set: the
// instance's APIRequestHeaders are not forwarded to the stream. When
// construction fails, the engine counts an error, backs off according to the
// error count, and calls the factory again.
type EventSourceFactory func(ctx context.Context, url string, headers http.Header) (EventSource, error)

// PersistentStore is the replaceable persistent key-value store shim (spec
// §6): a single record, read and written by opaque string value. A nil
// PersistentStore is valid and means "no persistence" — the repository runs
// memory-only (spec §4.A, §7).
type PersistentStore interface {
	GetItem(ctx context.Context, name string) (string, error)
	SetItem(ctx context.Context, name string, value string) error
}

// environment bundles every replaceable reference the repository uses.
// Accessors on *environment always read the current value, so overrides
// installed via SetPolyfills after module load still take effect (spec
// §4.A).
type environment struct {
	httpClient   *http.Client
	eventSource  EventSourceFactory
	store        PersistentStore
	subtleCrypto SubtleCrypto
	logger       *slog.Logger
}

func defaultEnvironment() *environment {
	return &environment{
		httpClient:   http.DefaultClient,
		eventSource:  defaultEventSourceFactory,
		store:        nil,
		subtleCrypto: defaultSubtleCrypto{},
		logger:       slog.Default(),
	}
}

var env = defaultEnvironment()

// Polyfills holds overrides for the repository's environment shims. Any
// field left nil/zero keeps its current value — SetPolyfills merges rather
// than replaces (spec §4.A).
type Polyfills struct {
	HTTPClient   *http.Client
	EventSource  EventSourceFactory
	Store        PersistentStore
	SubtleCrypto SubtleCrypto
	Logger       *slog.Logger
}

// SetPolyfills merges overrides into the package-wide environment. It never
// panics: a zero-value Polyfills is a no-op.
func SetPolyfills(p Polyfills) {
	if p.HTTPClient != nil {
		env.httpClient = p.HTTPClient
	}
	if p.EventSource != nil {
		env.eventSource = p.EventSource
	}
	if p.Store != nil {
		env.store = p.Store
	}
	if p.SubtleCrypto != nil {
		env.subtleCrypto = p.SubtleCrypto
	}
	if p.Logger != nil {
		env.logger = p.Logger
	}
}
