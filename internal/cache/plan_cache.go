package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

var _ Cache = (*PlanCache)(nil)

// PlanCache holds recently resolved active macro plans.
type PlanCache struct {
	mainCache *ristretto.Cache
	ttl       time.Duration
}

func NewPlanCache(ttl time.Duration) (*PlanCache, error) {
	mainCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,     // number of keys to track frequency of (100k)
		MaxCost:     1 << 26, // maximum cost of cache (~67M)
		BufferItems: 64,      // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	return &PlanCache{
		mainCache: mainCache,
		ttl:       ttl,
	}, nil
}

func (pc *PlanCache) Get(key interface{}) (interface{}, bool) {
	return pc.mainCache.Get(key)
}

// Set stores the value and waits until it is visible to Get.
func (pc *PlanCache) Set(key, value interface{}, cost int64) bool {
	var ok bool
	if pc.ttl > 0 {
		ok = pc.mainCache.SetWithTTL(key, value, cost, pc.ttl)
	} else {
		ok = pc.mainCache.Set(key, value, cost)
	}
	pc.mainCache.Wait()
	return ok
}

func (pc *PlanCache) Del(key interface{}) {
	pc.mainCache.Del(key)
}

func (pc *PlanCache) Clear() {
	pc.mainCache.Clear()
}

func (pc *PlanCache) Close() {
	pc.mainCache.Close()
}
