package growthbook

import "sync"

// subscriptions maps each RepositoryKey to the ordered set of Instances that
// want to be notified on ingest (spec §3 "Subscription set"). Order is
// insertion order, matching the Cache's own ordering guarantee, so that fan
// out during ingest is deterministic (spec §8 invariant 4).
type subscriptionRegistry struct {
	mu    sync.Mutex
	order map[RepositoryKey][]Instance
}

var subs = &subscriptionRegistry{order: make(map[RepositoryKey][]Instance)}

func (r *subscriptionRegistry) subscribe(key RepositoryKey, inst Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.order[key] {
		if existing == inst {
			return
		}
	}
	r.order[key] = append(r.order[key], inst)
}

// unsubscribe removes inst from every key it is registered under — spec §9
// leaves it open which key(s) Unsubscribe applies to when an instance could
// in principle subscribe under more than one; we scan every key so an
// instance is never left listening on a stale key.
func (r *subscriptionRegistry) unsubscribe(inst Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, list := range r.order {
		filtered := list[:0:0]
		for _, existing := range list {
			if existing != inst {
				filtered = append(filtered, existing)
			}
		}
		if len(filtered) == 0 {
			delete(r.order, key)
		} else {
			r.order[key] = filtered
		}
	}
}

func (r *subscriptionRegistry) subscribers(key RepositoryKey) []Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Instance, len(r.order[key]))
	copy(out, r.order[key])
	return out
}

func (r *subscriptionRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = make(map[RepositoryKey][]Instance)
}
