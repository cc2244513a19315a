package growthbook

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"
)

func base64Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func resetIngestState(t *testing.T) {
	t.Helper()
	prevCache := cache
	t.Cleanup(func() {
		cache = prevCache
		resetStreamRegistry()
	})
	cache = newMemoryCache()
	resetStreamRegistry()
	subs.clear()
}

func TestIngestPayloadNotifiesSubscribers(t *testing.T) {
	resetIngestState(t)

	inst := &fakeInstance{clientKey: "abc"}
	key := RepositoryKey("k1")
	subs.subscribe(key, inst)

	payload := &Payload{
		Features:    json.RawMessage(`{"foo":{"defaultValue":true}}`),
		DateUpdated: "v1",
	}
	ingestPayload(key, payload)

	if got := inst.GetFeatures(); got["foo"] == nil {
		t.Errorf("expected feature data to reach subscribed instance, got %v", got)
	}
	entry := cache.Get(key)
	if entry == nil || entry.Version != "v1" {
		t.Fatalf("expected cache entry with version v1, got %v", entry)
	}
}

func TestIngestPayloadSameVersionExtendsStaleAtOnly(t *testing.T) {
	resetIngestState(t)

	key := RepositoryKey("k1")
	payload := &Payload{DateUpdated: "v1"}
	ingestPayload(key, payload)
	first := cache.Get(key)

	inst := &fakeInstance{clientKey: "abc"}
	subs.subscribe(key, inst)

	time.Sleep(time.Millisecond)
	ingestPayload(key, &Payload{DateUpdated: "v1"})

	second := cache.Get(key)
	if second.Data != first.Data {
		t.Errorf("expected same-version ingest to keep existing Data, got a new Data pointer")
	}
	if !second.StaleAt.After(first.StaleAt) {
		t.Errorf("expected StaleAt to be extended: first=%v second=%v", first.StaleAt, second.StaleAt)
	}
	if len(inst.GetFeatures()) != 0 {
		t.Errorf("expected idempotent update not to notify subscribers")
	}
}

func TestApplyInstancePrefersEncryptedOverPlain(t *testing.T) {
	key := make([]byte, 16)
	encrypted := encryptForTest(t, key, `{"foo":true}`)

	inst := &fakeInstance{decryptionKey: base64Encode(key)}
	payload := &Payload{
		EncryptedFeatures: encrypted,
		Features:          json.RawMessage(`{"bar":true}`),
	}

	applyFeatures(inst, payload)

	got := inst.GetFeatures()
	if _, ok := got["_raw"]; !ok {
		t.Errorf("expected decrypted path to run, got %v", got)
	}
}
