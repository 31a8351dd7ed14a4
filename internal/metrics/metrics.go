package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Metric names shared by the API, the services and the worker
const (
	OrdersCreated     = "orders_created"
	OrdersUpdated     = "orders_updated"
	OrdersBilled      = "orders_billed"
	OrderStatusSet    = "order_status_changes"
	ItemsWritten      = "items_written"
	OutboxRelayed     = "outbox_relayed"
	OutboxRelayFailed = "outbox_relay_failed"
	CacheHits         = "cache_hits"
	CacheMisses       = "cache_misses"
)

// TimerMetric captures timing information
type TimerMetric struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateMetric captures error rates
type ErrorRateMetric struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

type timer struct {
	count       int64
	totalTimeMs int64
	minTimeMs   int64
	maxTimeMs   int64
}

type errorRate struct {
	total  int64
	errors int64
}

// Metrics is an in-process collector exposed on /metrics and /health
type Metrics struct {
	mu           sync.RWMutex
	counters     map[string]*int64
	gauges       map[string]*int64
	timers       map[string]*timer
	errorRates   map[string]*errorRate
	healthChecks map[string]*int64
	startTime    time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:     make(map[string]*int64),
		gauges:       make(map[string]*int64),
		timers:       make(map[string]*timer),
		errorRates:   make(map[string]*errorRate),
		healthChecks: make(map[string]*int64),
		startTime:    time.Now(),
	}
}

// lookup returns the entry for name, creating it under the write lock if absent
func lookup[T any](m *Metrics, store map[string]*T, name string, create func() *T) *T {
	m.mu.RLock()
	v, ok := store[name]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = store[name]; !ok {
		v = create()
		store[name] = v
	}
	return v
}

func newInt() *int64 { return new(int64) }

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the specified value
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	if m == nil {
		return
	}
	atomic.AddInt64(lookup(m, m.counters, name, newInt), value)
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	if m == nil {
		return
	}
	atomic.StoreInt64(lookup(m, m.gauges, name, newInt), value)
}

// RecordTimer records a timing measurement
func (m *Metrics) RecordTimer(name string, durationMs int64) {
	if m == nil {
		return
	}
	t := lookup(m, m.timers, name, func() *timer {
		return &timer{minTimeMs: math.MaxInt64}
	})

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTimeMs, durationMs)

	for {
		cur := atomic.LoadInt64(&t.minTimeMs)
		if durationMs >= cur || atomic.CompareAndSwapInt64(&t.minTimeMs, cur, durationMs) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&t.maxTimeMs)
		if durationMs <= cur || atomic.CompareAndSwapInt64(&t.maxTimeMs, cur, durationMs) {
			break
		}
	}
}

// Since records the time elapsed from start under name
func (m *Metrics) Since(name string, start time.Time) {
	m.RecordTimer(name, time.Since(start).Milliseconds())
}

// RecordSuccess records a successful operation for error rate tracking
func (m *Metrics) RecordSuccess(name string) {
	m.recordErrorRate(name, false)
}

// RecordError records an error for error rate tracking
func (m *Metrics) RecordError(name string) {
	m.recordErrorRate(name, true)
}

// RecordResult records success or failure depending on err
func (m *Metrics) RecordResult(name string, err error) {
	m.recordErrorRate(name, err != nil)
}

func (m *Metrics) recordErrorRate(name string, isError bool) {
	if m == nil {
		return
	}
	er := lookup(m, m.errorRates, name, func() *errorRate { return &errorRate{} })

	atomic.AddInt64(&er.total, 1)
	if isError {
		atomic.AddInt64(&er.errors, 1)
	}
}

// RecordDatabaseQuery tracks one SQL statement by operation (select, insert, update, delete)
func (m *Metrics) RecordDatabaseQuery(op string, success bool, d time.Duration) {
	name := "db_" + op
	m.RecordTimer(name, d.Milliseconds())
	m.recordErrorRate(name, !success)
}

// SetHealth sets the health status of a component
func (m *Metrics) SetHealth(component string, isHealthy bool) {
	if m == nil {
		return
	}
	var value int64
	if isHealthy {
		value = 1
	}
	atomic.StoreInt64(lookup(m, m.healthChecks, component, newInt), value)
}

// GetCounters returns all counters
func (m *Metrics) GetCounters() map[string]int64 {
	return m.snapshot(m.counters)
}

// GetGauges returns all gauges
func (m *Metrics) GetGauges() map[string]int64 {
	return m.snapshot(m.gauges)
}

func (m *Metrics) snapshot(store map[string]*int64) map[string]int64 {
	out := make(map[string]int64)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, v := range store {
		out[name] = atomic.LoadInt64(v)
	}
	return out
}

// GetTimers returns all timers
func (m *Metrics) GetTimers() map[string]TimerMetric {
	timers := make(map[string]TimerMetric)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, t := range m.timers {
		count := atomic.LoadInt64(&t.count)
		total := atomic.LoadInt64(&t.totalTimeMs)

		var average float64
		if count > 0 {
			average = float64(total) / float64(count)
		}

		timers[name] = TimerMetric{
			Count:         count,
			TotalTimeMs:   total,
			AverageTimeMs: average,
			MinTimeMs:     atomic.LoadInt64(&t.minTimeMs),
			MaxTimeMs:     atomic.LoadInt64(&t.maxTimeMs),
		}
	}

	return timers
}

// GetErrorRates returns all error rates as percentages
func (m *Metrics) GetErrorRates() map[string]ErrorRateMetric {
	rates := make(map[string]ErrorRateMetric)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, er := range m.errorRates {
		total := atomic.LoadInt64(&er.total)
		errs := atomic.LoadInt64(&er.errors)

		var rate float64
		if total > 0 {
			rate = float64(errs) / float64(total) * 100.0
		}

		rates[name] = ErrorRateMetric{Total: total, Errors: errs, ErrorRate: rate}
	}

	return rates
}

// GetHealthChecks returns all health checks
func (m *Metrics) GetHealthChecks() map[string]bool {
	checks := make(map[string]bool)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, h := range m.healthChecks {
		checks[name] = atomic.LoadInt64(h) > 0
	}

	return checks
}

// GetUptimeSeconds returns the service uptime in seconds
func (m *Metrics) GetUptimeSeconds() int64 {
	return int64(time.Since(m.startTime).Seconds())
}

// GetAllMetrics returns all metrics in a structured format
func (m *Metrics) GetAllMetrics() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds": m.GetUptimeSeconds(),
		"counters":       m.GetCounters(),
		"gauges":         m.GetGauges(),
		"timers":         m.GetTimers(),
		"error_rates":    m.GetErrorRates(),
		"health_checks":  m.GetHealthChecks(),
	}
}
