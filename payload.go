package growthbook

import "encoding/json"

// Payload is the opaque JSON object the remote feature API (or an SSE
// stream) delivers for a repository key. Every field is optional and
// unknown fields are ignored (spec §6).
type Payload struct {
	Features             json.RawMessage `json:"features,omitempty"`
	Experiments          json.RawMessage `json:"experiments,omitempty"`
	EncryptedFeatures    string          `json:"encryptedFeatures,omitempty"`
	EncryptedExperiments string          `json:"encryptedExperiments,omitempty"`
	DateUpdated          string          `json:"dateUpdated,omitempty"`
}

// version implements the cache change-detection rule from spec §3: the
// version of a Payload is its DateUpdated string, or "" if absent.
func (p *Payload) version() string {
	if p == nil {
		return ""
	}
	return p.DateUpdated
}

// parsePayload decodes a raw JSON feature-API response body. A nil/empty
// body is not an error: it simply yields an empty Payload, matching the
// fetch-never-rejects convention (spec §7/§9) where callers distinguish
// failure by nothing having been applied to their instance.
func parsePayload(body []byte) (*Payload, error) {
	if len(body) == 0 {
		return &Payload{}, nil
	}
	p := &Payload{}
	if err := json.Unmarshal(body, p); err != nil {
		return nil, err
	}
	return p, nil
}
