package growthbook

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"
)

// r3labsEventSource adapts github.com/r3labs/sse/v2 to the EventSource
// interface, grounded on the teacher's refreshFromSSE (repository.go).
type r3labsEventSource struct {
	client *sse.Client
	events chan StreamEvent
	raw    chan *sse.Event
	once   sync.Once
}

func defaultEventSourceFactory(ctx context.Context, url string, headers http.Header) (EventSource, error) {
	client := sse.NewClient(url)
	if client.Headers == nil {
		client.Headers = map[string]string{}
	}
	for k := range headers {
		client.Headers[k] = headers.Get(k)
	}

	es := &r3labsEventSource{
		client: client,
		events: make(chan StreamEvent),
		raw:    make(chan *sse.Event),
	}

	if err := client.SubscribeChanWithContext(ctx, "features", es.raw); err != nil {
		return nil, err
	}

	go func() {
		for evt := range es.raw {
			if evt == nil {
				continue
			}
			es.events <- StreamEvent{Name: string(evt.Event), Data: evt.Data}
		}
		close(es.events)
	}()

	return es, nil
}

func (es *r3labsEventSource) Events() <-chan StreamEvent { return es.events }

func (es *r3labsEventSource) OnDisconnect(fn func()) {
	es.client.OnDisconnect(func(*sse.Client) { fn() })
}

func (es *r3labsEventSource) Close() {
	es.once.Do(func() {
		es.client.Unsubscribe(es.raw)
	})
}

// channelState tracks one key's live streaming connection (spec §3
// "Streaming channel").
type channelState struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type streamRegistry struct {
	mu       sync.Mutex
	sse      map[RepositoryKey]bool
	channels map[RepositoryKey]*channelState
}

var streams = &streamRegistry{
	sse:      make(map[RepositoryKey]bool),
	channels: make(map[RepositoryKey]*channelState),
}

func (r *streamRegistry) setSSESupported(key RepositoryKey, supported bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sse[key] = supported
}

func (r *streamRegistry) sseSupported(key RepositoryKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sse[key]
}

// startStreaming opens a streaming channel for key if background sync is
// enabled, this endpoint is known to support SSE, an EventSource shim is
// configured, and no channel is already open for key (spec §4.G
// preconditions).
func startStreaming(key RepositoryKey, apiHost, clientKey string) {
	if !settingsSnapshot().backgroundSync {
		return
	}

	streams.mu.Lock()
	if !streams.sse[key] || streams.channels[key] != nil || env.eventSource == nil {
		streams.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	state := &channelState{cancel: cancel, done: make(chan struct{})}
	streams.channels[key] = state
	streams.mu.Unlock()

	url := streamURL(apiHost, clientKey)
	go runStream(ctx, key, url, state)
}

func streamURL(apiHost, clientKey string) string {
	return strings.TrimRight(apiHost, "/") + "/sub/" + clientKey
}

// runStream owns one key's reconnect/backoff state machine (spec §4.G),
// grounded on the teacher's refreshFromSSE.
func runStream(ctx context.Context, key RepositoryKey, url string, state *channelState) {
	defer close(state.done)

	errCount := 0
	headers := http.Header{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		source, err := env.eventSource(ctx, url, headers)
		if err != nil && len(headers) > 0 {
			// Retry once with headers omitted (spec §4.G).
			headers = http.Header{}
			source, err = env.eventSource(ctx, url, nil)
		}
		if err != nil {
			errCount++
			env.logger.Error("growthbook: failed to open stream", "key", key, "error", err)
			if !backoffWait(ctx, errCount) {
				return
			}
			continue
		}

		disconnected := make(chan struct{}, 1)
		source.OnDisconnect(func() {
			select {
			case disconnected <- struct{}{}:
			default:
			}
		})

		connectionOK := true
	readLoop:
		for connectionOK {
			select {
			case <-ctx.Done():
				source.Close()
				return

			case <-disconnected:
				connectionOK = false

			case evt, ok := <-source.Events():
				if !ok {
					connectionOK = false
					break readLoop
				}
				switch evt.Name {
				case "features":
					if len(evt.Data) == 0 {
						continue
					}
					payload, err := parsePayload(evt.Data)
					if err != nil {
						errCount++
						env.logger.Error("growthbook: stream payload error", "key", key, "error", err)
						if errCount > 3 {
							source.Close()
							connectionOK = false
							if !backoffWait(ctx, errCount) {
								return
							}
						}
						continue
					}
					errCount = 0
					ingestPayload(key, payload)

				case "features-updated":
					// No payload by definition (spec §4.G/§6): triggers a
					// GET refetch instead of being parsed as a feature set.
					errCount = 0
					triggerRefetch(ctx, key)
				}
			}
		}
	}
}

// backoffWait sleeps per spec §4.G's jittered exponential backoff formula
// once errCount exceeds 3 free errors, or returns immediately otherwise.
// Returns false if ctx is cancelled while waiting.
func backoffWait(ctx context.Context, errCount int) bool {
	if errCount <= 3 {
		return true
	}

	msDelay := math.Pow(3, float64(errCount-3)) * (1000 + rand.Float64()*1000)
	delay := time.Duration(msDelay) * time.Millisecond
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func teardownChannel(key RepositoryKey) {
	streams.mu.Lock()
	state := streams.channels[key]
	delete(streams.channels, key)
	streams.mu.Unlock()

	if state != nil {
		state.cancel()
	}
}

func teardownAllChannels() {
	streams.mu.Lock()
	states := make([]*channelState, 0, len(streams.channels))
	for k, s := range streams.channels {
		states = append(states, s)
		delete(streams.channels, k)
	}
	streams.mu.Unlock()

	for _, s := range states {
		s.cancel()
	}
}

func resetStreamRegistry() {
	teardownAllChannels()
	streams.mu.Lock()
	streams.sse = make(map[RepositoryKey]bool)
	streams.mu.Unlock()
}
