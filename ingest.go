package growthbook

import (
	"encoding/json"
	"time"
)

// ingestPayload applies a freshly fetched or streamed Payload to the shared
// cache and fans it out to every subscribed Instance (spec §4.E, §8
// invariant 4), grounded on the teacher's onNewFeatureData (repository.go).
// If the payload's version matches the existing entry, the update is
// idempotent: only the stale deadline is extended and no instance is
// notified (spec §8 invariant 3). The entry's SSE flag always reflects the
// streaming-support set (populated from the x-sse-support header), not
// which channel happened to deliver this particular payload, so a
// rehydrated entry correctly resumes streaming after a process restart.
func ingestPayload(key RepositoryKey, payload *Payload) {
	version := payload.version()
	now := time.Now()
	staleAt := now.Add(settingsSnapshot().staleTTL)

	existing := cache.Get(key)
	if existing != nil && existing.Version == version {
		extended := *existing
		extended.StaleAt = staleAt
		cache.Set(key, &extended)
		return
	}

	entry := &CacheEntry{Data: payload, Version: version, StaleAt: staleAt, SSE: streams.sseSupported(key)}
	cache.Set(key, entry)
	persistCache()

	for _, inst := range subs.subscribers(key) {
		applyInstance(inst, payload)
	}
}

// applyInstance pushes a Payload's features and experiments into inst,
// decrypting first when the payload carries encrypted fields instead of
// plaintext ones (spec §4.F), grounded on the teacher's refreshInstance.
// Experiments are applied before features, matching the teacher's ordering.
func applyInstance(inst Instance, payload *Payload) {
	applyExperiments(inst, payload)
	applyFeatures(inst, payload)
}

func applyFeatures(inst Instance, payload *Payload) {
	if payload.EncryptedFeatures != "" {
		if err := inst.SetEncryptedFeatures(payload.EncryptedFeatures, "", nil); err != nil {
			inst.Log("growthbook: failed to decrypt encrypted features", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	if len(payload.Features) == 0 {
		return
	}
	var features map[string]interface{}
	if err := json.Unmarshal(payload.Features, &features); err != nil {
		inst.Log("growthbook: failed to parse features", map[string]interface{}{"error": err.Error()})
		return
	}
	inst.SetFeatures(features)
}

func applyExperiments(inst Instance, payload *Payload) {
	if payload.EncryptedExperiments != "" {
		if err := inst.SetEncryptedExperiments(payload.EncryptedExperiments, "", nil); err != nil {
			inst.Log("growthbook: failed to decrypt encrypted experiments", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	if len(payload.Experiments) == 0 {
		return
	}
	var experiments []interface{}
	if err := json.Unmarshal(payload.Experiments, &experiments); err != nil {
		inst.Log("growthbook: failed to parse experiments", map[string]interface{}{"error": err.Error()})
		return
	}
	inst.SetExperiments(experiments)
}
