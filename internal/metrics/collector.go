package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides simple built-in metrics collection with no external dependencies
type Collector struct {
	applicationMetrics *ApplicationMetrics
	operationCounters  map[string]*int64
	mu                 sync.RWMutex
	startTime          time.Time
}

// ApplicationMetrics tracks binding-engine activity
type ApplicationMetrics struct {
	// Model registry
	ModelsRegistered int64 `json:"models_registered"`
	NodesQueued      int64 `json:"nodes_queued"`
	InstancesBound   int64 `json:"instances_bound"`

	// Binder
	BindingsApplied int64 `json:"bindings_applied"`
	BindingsSkipped int64 `json:"bindings_skipped"`

	// Reactive writes
	Writes     int64 `json:"writes"`
	FanOutOps  int64 `json:"fan_out_ops"`
	MaxFanOut  int64 `json:"max_fan_out"`
	Rejections int64 `json:"rejections"`

	// Router
	PathBindings int64 `json:"path_bindings"`
	Navigations  int64 `json:"navigations"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		applicationMetrics: &ApplicationMetrics{
			StartTime: time.Now(),
		},
		operationCounters: make(map[string]*int64),
		startTime:         time.Now(),
	}
}

// IncrementModelRegistered records a createModel call that was accepted
func (c *Collector) IncrementModelRegistered() {
	atomic.AddInt64(&c.applicationMetrics.ModelsRegistered, 1)
}

// IncrementNodeQueued records a host node parked until its template arrives
func (c *Collector) IncrementNodeQueued() {
	atomic.AddInt64(&c.applicationMetrics.NodesQueued, 1)
}

// IncrementInstanceBound records a host node bound to a new instance
func (c *Collector) IncrementInstanceBound() {
	atomic.AddInt64(&c.applicationMetrics.InstancesBound, 1)
}

// RecordBindings adds the outcome of one materialization
func (c *Collector) RecordBindings(applied, skipped int) {
	atomic.AddInt64(&c.applicationMetrics.BindingsApplied, int64(applied))
	atomic.AddInt64(&c.applicationMetrics.BindingsSkipped, int64(skipped))
}

// RecordWrite records one write and the renderer calls its fan-out made
func (c *Collector) RecordWrite(ops int) {
	atomic.AddInt64(&c.applicationMetrics.Writes, 1)
	atomic.AddInt64(&c.applicationMetrics.FanOutOps, int64(ops))

	// Update max fan-out if needed
	for {
		max := atomic.LoadInt64(&c.applicationMetrics.MaxFanOut)
		if int64(ops) <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.applicationMetrics.MaxFanOut, max, int64(ops)) {
			break
		}
	}
}

// IncrementRejection records a createModel call that was refused
func (c *Collector) IncrementRejection() {
	atomic.AddInt64(&c.applicationMetrics.Rejections, 1)
}

// AddPathBindings records guarded nodes registered with the router
func (c *Collector) AddPathBindings(n int) {
	atomic.AddInt64(&c.applicationMetrics.PathBindings, int64(n))
}

// IncrementNavigation records a router recompute
func (c *Collector) IncrementNavigation() {
	atomic.AddInt64(&c.applicationMetrics.Navigations, 1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns current application metrics
func (c *Collector) GetMetrics() ApplicationMetrics {
	c.mu.RLock()
	start := c.startTime
	c.mu.RUnlock()

	m := c.applicationMetrics
	return ApplicationMetrics{
		ModelsRegistered: atomic.LoadInt64(&m.ModelsRegistered),
		NodesQueued:      atomic.LoadInt64(&m.NodesQueued),
		InstancesBound:   atomic.LoadInt64(&m.InstancesBound),
		BindingsApplied:  atomic.LoadInt64(&m.BindingsApplied),
		BindingsSkipped:  atomic.LoadInt64(&m.BindingsSkipped),
		Writes:           atomic.LoadInt64(&m.Writes),
		FanOutOps:        atomic.LoadInt64(&m.FanOutOps),
		MaxFanOut:        atomic.LoadInt64(&m.MaxFanOut),
		Rejections:       atomic.LoadInt64(&m.Rejections),
		PathBindings:     atomic.LoadInt64(&m.PathBindings),
		Navigations:      atomic.LoadInt64(&m.Navigations),
		StartTime:        start,
		Uptime:           time.Since(start),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64)
	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.applicationMetrics
	for _, p := range []*int64{
		&m.ModelsRegistered, &m.NodesQueued, &m.InstancesBound,
		&m.BindingsApplied, &m.BindingsSkipped,
		&m.Writes, &m.FanOutOps, &m.MaxFanOut, &m.Rejections,
		&m.PathBindings, &m.Navigations,
	} {
		atomic.StoreInt64(p, 0)
	}

	// Reset custom counters
	c.operationCounters = make(map[string]*int64)

	c.startTime = time.Now()
}

// GetSkipRate returns the percentage of declared bindings that named a
// missing property
func (c *Collector) GetSkipRate() float64 {
	applied := atomic.LoadInt64(&c.applicationMetrics.BindingsApplied)
	skipped := atomic.LoadInt64(&c.applicationMetrics.BindingsSkipped)

	total := applied + skipped
	if total == 0 {
		return 0.0
	}

	return float64(skipped) / float64(total) * 100.0
}

// GetAverageFanOut returns renderer calls per write
func (c *Collector) GetAverageFanOut() float64 {
	writes := atomic.LoadInt64(&c.applicationMetrics.Writes)
	ops := atomic.LoadInt64(&c.applicationMetrics.FanOutOps)

	if writes == 0 {
		return 0.0
	}

	return float64(ops) / float64(writes)
}
