package observability

import (
	"sort"
	"sync"
	"time"
)

// Metrics keeps per-route request counters in memory. They reset on
// restart and are exposed at /health/metrics.
type Metrics struct {
	mu     sync.Mutex
	routes map[string]*routeStats
}

type routeStats struct {
	requests      int64
	byClass       map[string]int64
	errors        map[string]int64
	totalDuration time.Duration
	maxDuration   time.Duration
}

// RouteMetrics is the snapshot of one "METHOD /route/template" key.
type RouteMetrics struct {
	Route         string           `json:"route"`
	Requests      int64            `json:"requests"`
	StatusClasses map[string]int64 `json:"status_classes"`
	ErrorCodes    map[string]int64 `json:"error_codes,omitempty"`
	AvgDurationMs int64            `json:"avg_duration_ms"`
	MaxDurationMs int64            `json:"max_duration_ms"`
}

// MetricsSnapshot is a point-in-time copy of the counters, sorted by route.
type MetricsSnapshot struct {
	Routes []RouteMetrics `json:"routes"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{routes: make(map[string]*routeStats)}
}

// RecordRequest counts a handled request under its route template.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.statsFor(method + " " + route)
	stats.requests++
	stats.byClass[statusClass(status)]++
	stats.totalDuration += duration
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}
}

// RecordError counts an error code returned by a route.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsFor(method + " " + route).errors[code]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Routes: []RouteMetrics{}}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, stats := range m.routes {
		rm := RouteMetrics{
			Route:         key,
			Requests:      stats.requests,
			StatusClasses: make(map[string]int64, len(stats.byClass)),
			MaxDurationMs: stats.maxDuration.Milliseconds(),
		}
		for class, n := range stats.byClass {
			rm.StatusClasses[class] = n
		}
		if len(stats.errors) > 0 {
			rm.ErrorCodes = make(map[string]int64, len(stats.errors))
			for code, n := range stats.errors {
				rm.ErrorCodes[code] = n
			}
		}
		if stats.requests > 0 {
			rm.AvgDurationMs = (stats.totalDuration / time.Duration(stats.requests)).Milliseconds()
		}
		snap.Routes = append(snap.Routes, rm)
	}
	sort.Slice(snap.Routes, func(i, j int) bool { return snap.Routes[i].Route < snap.Routes[j].Route })
	return snap
}

func (m *Metrics) statsFor(key string) *routeStats {
	stats, ok := m.routes[key]
	if !ok {
		stats = &routeStats{byClass: map[string]int64{}, errors: map[string]int64{}}
		m.routes[key] = stats
	}
	return stats
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
