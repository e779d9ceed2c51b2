package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/kashiwade/menshen/pkg/cache"
	"github.com/kashiwade/menshen/pkg/cache/memorycache"
)

// Collector collects and aggregates metrics for the application.
type Collector struct {
	// HTTP metrics
	httpRequests sync.Map // map[string]*uint64 - route -> count
	httpErrors   sync.Map // map[string]*uint64 - route -> error count
	httpDuration sync.Map // map[string]*durationValue - route -> total duration in seconds

	// Authorization decision outcomes
	decisionsAllowed uint64
	decisionsDenied  uint64

	// Cache reference (optional, for querying cache-specific metrics)
	cache cache.Cache
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

// CacheMetrics holds decision cache performance metrics.
type CacheMetrics struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64
	KeysCurrent int64
	MemoryBytes int64
	Evictions   uint64
}

// HTTPMetrics holds HTTP request metrics.
type HTTPMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// DecisionMetrics holds authorization decision outcome counts.
type DecisionMetrics struct {
	Allowed uint64
	Denied  uint64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetCache sets the cache instance for collecting cache metrics.
func (c *Collector) SetCache(cache cache.Cache) {
	c.cache = cache
}

// RecordRequest records an HTTP request for a route.
func (c *Collector) RecordRequest(route string) {
	counter := c.getOrCreateCounter(&c.httpRequests, route)
	atomic.AddUint64(counter, 1)
}

// RecordError records an HTTP error for a route.
func (c *Collector) RecordError(route string) {
	counter := c.getOrCreateCounter(&c.httpErrors, route)
	atomic.AddUint64(counter, 1)
}

// RecordDuration records the duration of a request in seconds.
func (c *Collector) RecordDuration(route string, durationSeconds float64) {
	val, _ := c.httpDuration.LoadOrStore(route, &durationValue{})
	dv := val.(*durationValue)

	dv.mu.Lock()
	dv.totalSeconds += durationSeconds
	dv.mu.Unlock()
}

// RecordDecision records the outcome of an access decision.
func (c *Collector) RecordDecision(allowed bool) {
	if allowed {
		atomic.AddUint64(&c.decisionsAllowed, 1)
	} else {
		atomic.AddUint64(&c.decisionsDenied, 1)
	}
}

// GetDecisionMetrics returns current decision outcome counts.
func (c *Collector) GetDecisionMetrics() *DecisionMetrics {
	return &DecisionMetrics{
		Allowed: atomic.LoadUint64(&c.decisionsAllowed),
		Denied:  atomic.LoadUint64(&c.decisionsDenied),
	}
}

// GetCacheMetrics returns current cache metrics.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	if c.cache == nil {
		return &CacheMetrics{}
	}

	metrics := c.cache.Metrics()
	if metrics == nil {
		return &CacheMetrics{}
	}

	result := &CacheMetrics{
		Hits:      metrics.Hits,
		Misses:    metrics.Misses,
		HitRate:   metrics.HitRate(),
		Evictions: metrics.KeysEvicted,
	}

	if memCache, ok := c.cache.(*memorycache.Cache); ok {
		result.KeysCurrent = int64(memCache.Len())
		result.MemoryBytes = memCache.Size()
	}

	return result
}

// GetHTTPMetrics returns current HTTP request metrics.
func (c *Collector) GetHTTPMetrics() *HTTPMetrics {
	result := &HTTPMetrics{
		RequestCounts:        make(map[string]uint64),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.httpRequests.Range(func(key, value interface{}) bool {
		route := key.(string)
		count := atomic.LoadUint64(value.(*uint64))
		result.RequestCounts[route] = count
		return true
	})

	c.httpErrors.Range(func(key, value interface{}) bool {
		route := key.(string)
		count := atomic.LoadUint64(value.(*uint64))
		result.ErrorCounts[route] = count
		return true
	})

	c.httpDuration.Range(func(key, value interface{}) bool {
		route := key.(string)
		dv := value.(*durationValue)
		dv.mu.Lock()
		result.TotalDurationSeconds[route] = dv.totalSeconds
		dv.mu.Unlock()
		return true
	})

	return result
}

// getOrCreateCounter gets or creates a counter for the given key.
func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
