package demo

import (
	"context"
	"time"

	"github.com/ate-darren/growthbook"
	"github.com/ate-darren/growthbook/rediscache"
)

// RunWithRedisCache wires a Redis-backed Cache into the repository and
// performs one refresh for a demo Instance, mirroring the shape of a real
// integration: configure the cache backend once at startup, then call
// RefreshFeatures per instance as usual.
func RunWithRedisCache(ctx context.Context, redisAddr, apiHost, clientKey string) (*Instance, error) {
	backend, err := rediscache.Dial(redisAddr, "growthbook-demo")
	if err != nil {
		return nil, err
	}
	growthbook.SetCache(backend)

	inst := New(apiHost, clientKey, false, nil, "")
	growthbook.Subscribe(inst)

	err = growthbook.RefreshFeatures(ctx, inst, growthbook.RefreshOptions{
		Timeout:        5 * time.Second,
		UpdateInstance: true,
	})
	return inst, err
}
