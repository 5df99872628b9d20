package cache

// Cache holds active macro plans keyed by athlete id.
// PlanCache is the ristretto-backed implementation; MapCache is unbounded.
type Cache interface {
	Get(key interface{}) (interface{}, bool)
	// Set returns false when the value was dropped, e.g. by ristretto admission.
	Set(key, value interface{}, cost int64) bool
	Del(key interface{})
	Clear()
}
