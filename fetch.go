package growthbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// inflight coalesces concurrent fetches for the same RepositoryKey into a
// single HTTP round trip (spec §3 "In-flight entry"), grounded on the
// teacher's outstandingRequest map but implemented with the real
// request-coalescing primitive the rest of the ecosystem reaches for.
var inflight singleflight.Group

// fetchAndIngest performs the remote feature-API request for inst, ingests
// the result into the shared cache, and returns the resulting Payload. It
// never returns an error for network, parse or context-cancellation
// failures — those are logged and resolved as an empty Payload (spec §7's
// fetch-never-rejects convention).
func fetchAndIngest(ctx context.Context, inst Instance) (*Payload, error) {
	apiHost, clientKey := inst.GetAPIInfo()
	key := keyFor(inst)

	v, err, _ := inflight.Do(string(key), func() (interface{}, error) {
		payload, sseSupported := doFetch(ctx, inst, apiHost, clientKey)
		streams.setSSESupported(key, sseSupported)
		ingestPayload(key, payload)
		if sseSupported {
			startStreaming(key, streamAPIHost(inst), clientKey)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Payload), nil
}

// triggerRefetch performs a GET refresh for key on behalf of one of its
// subscribed instances, in response to a features-updated stream event
// (spec §4.G), which carries no payload of its own.
func triggerRefetch(ctx context.Context, key RepositoryKey) {
	subscribers := subs.subscribers(key)
	if len(subscribers) == 0 {
		return
	}
	fetchAndIngest(ctx, subscribers[0])
}

func streamAPIHost(inst Instance) string {
	hosts := inst.GetAPIHosts()
	if hosts.StreamingHost != "" {
		return hosts.StreamingHost
	}
	apiHost, _ := inst.GetAPIInfo()
	return apiHost
}

// doFetch builds and issues the GET (local-eval) or POST (remote-eval)
// request per spec §4.D.3, and reports whether the response advertised SSE
// support via the x-sse-support header (spec §4.D.4). Errors never
// propagate here: every failure path logs and returns an empty Payload.
func doFetch(ctx context.Context, inst Instance, apiHost, clientKey string) (*Payload, bool) {
	req, err := buildFetchRequest(ctx, inst, apiHost, clientKey)
	if err != nil {
		env.logger.Error("growthbook: failed to build feature request", "error", err)
		return &Payload{}, false
	}

	resp, err := env.httpClient.Do(req)
	if err != nil {
		env.logger.Error("growthbook: feature request failed", "host", apiHost, "error", err)
		return &Payload{}, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		env.logger.Error("growthbook: failed reading feature response", "error", err)
		return &Payload{}, false
	}

	if resp.StatusCode != http.StatusOK {
		env.logger.Error("growthbook: feature request returned non-200", "status", resp.StatusCode, "body", string(body))
		return &Payload{}, false
	}

	payload, err := parsePayload(body)
	if err != nil {
		env.logger.Error("growthbook: failed parsing feature response", "error", err)
		return &Payload{}, false
	}

	sseSupported := resp.Header.Get("X-Sse-Support") == "enabled"
	return payload, sseSupported
}

func buildFetchRequest(ctx context.Context, inst Instance, apiHost, clientKey string) (*http.Request, error) {
	hosts := inst.GetAPIHosts()

	if inst.IsRemoteEval() {
		evalHost := hosts.RemoteEvalHost
		if evalHost == "" {
			evalHost = apiHost
		}
		path := hosts.RemoteEvalPath
		if path == "" {
			path = "/api/eval"
		}
		path += "/" + clientKey
		body := map[string]interface{}{
			"attributes": inst.GetAttributes(),
		}
		if uid := inst.GetUserID(); uid != "" {
			body["userId"] = uid
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("growthbook: encoding remote-eval request body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, evalHost+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		applyRequestHeaders(req, hosts)
		return req, nil
	}

	path := hosts.FeaturesPath
	if path == "" {
		path = "/api/features/" + clientKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiHost+path, nil)
	if err != nil {
		return nil, err
	}
	applyRequestHeaders(req, hosts)
	return req, nil
}

func applyRequestHeaders(req *http.Request, hosts APIHosts) {
	for k, values := range hosts.APIRequestHeaders {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
}
