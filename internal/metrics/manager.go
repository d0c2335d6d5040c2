// Package metrics keeps in-process counters and timings for the voice pipeline.
// Paths are "topic/function", e.g. "pipeline/download" or "stt/openai".
package metrics

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MetricsManager is the global metrics manager
type MetricsManager struct {
	mu          sync.RWMutex
	timings     map[string]*TimingMetric
	counters    map[string]*CounterMetric
	successFail map[string]*SuccessFailMetric
	outcomes    map[string]*OutcomeMetric
	started     time.Time

	db       *sql.DB
	stopSave chan struct{}
}

var (
	instance *MetricsManager
	once     sync.Once
)

func newManager() *MetricsManager {
	return &MetricsManager{
		timings:     make(map[string]*TimingMetric),
		counters:    make(map[string]*CounterMetric),
		successFail: make(map[string]*SuccessFailMetric),
		outcomes:    make(map[string]*OutcomeMetric),
		started:     time.Now(),
	}
}

// GetInstance returns the singleton metrics manager
func GetInstance() *MetricsManager {
	once.Do(func() {
		instance = newManager()
	})
	return instance
}

// buildPath creates a normalized path from topic and function
func buildPath(topic, function string) string {
	if function == "" {
		return topic
	}
	return fmt.Sprintf("%s/%s", topic, function)
}

// RecordDuration records a duration for a timing metric
func (m *MetricsManager) RecordDuration(topic, function string, duration time.Duration) {
	path := buildPath(topic, function)

	m.mu.Lock()
	metric, ok := m.timings[path]
	if !ok {
		metric = &TimingMetric{Min: duration}
		m.timings[path] = metric
	}
	m.mu.Unlock()

	metric.mu.Lock()
	defer metric.mu.Unlock()
	metric.Count++
	metric.Total += duration
	metric.Last = duration
	if duration < metric.Min {
		metric.Min = duration
	}
	if duration > metric.Max {
		metric.Max = duration
	}
}

// AddCounter adds a value to a counter
func (m *MetricsManager) AddCounter(topic, function string, delta int64) {
	path := buildPath(topic, function)

	m.mu.Lock()
	metric, ok := m.counters[path]
	if !ok {
		metric = &CounterMetric{}
		m.counters[path] = metric
	}
	m.mu.Unlock()

	metric.mu.Lock()
	metric.Value += delta
	metric.Last = time.Now()
	metric.mu.Unlock()
}

func (m *MetricsManager) successFailFor(path string) *SuccessFailMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.successFail[path]
	if !ok {
		metric = &SuccessFailMetric{FailureReasons: make(map[string]int64)}
		m.successFail[path] = metric
	}
	return metric
}

// RecordSuccess records a successful operation
func (m *MetricsManager) RecordSuccess(topic, function string) {
	metric := m.successFailFor(buildPath(topic, function))
	metric.mu.Lock()
	metric.Success++
	metric.LastSuccess = time.Now()
	metric.mu.Unlock()
}

// RecordFailure records a failed operation with an optional reason
func (m *MetricsManager) RecordFailure(topic, function, reason string) {
	metric := m.successFailFor(buildPath(topic, function))
	metric.mu.Lock()
	metric.Failures++
	metric.LastFailure = time.Now()
	if reason != "" {
		metric.FailureReasons[reason]++
	}
	metric.mu.Unlock()
}

// RecordOutcome records a specific outcome
func (m *MetricsManager) RecordOutcome(topic, function, outcome string) {
	path := buildPath(topic, function)

	m.mu.Lock()
	metric, ok := m.outcomes[path]
	if !ok {
		metric = &OutcomeMetric{Outcomes: make(map[string]int64)}
		m.outcomes[path] = metric
	}
	m.mu.Unlock()

	metric.mu.Lock()
	metric.Outcomes[outcome]++
	metric.Last = outcome
	metric.mu.Unlock()
}

// Counter returns the current value of a counter (0 if never touched)
func (m *MetricsManager) Counter(topic, function string) int64 {
	m.mu.RLock()
	metric, ok := m.counters[buildPath(topic, function)]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return metric.snapshot().Value
}

// GetSnapshot returns all metrics keyed by path, sorted for stable output
func (m *MetricsManager) GetSnapshot() []*MetricSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*MetricSnapshot, 0, len(m.timings)+len(m.counters)+len(m.successFail)+len(m.outcomes))
	for path, t := range m.timings {
		out = append(out, &MetricSnapshot{Path: path, Type: TypeTiming, Data: t.snapshot()})
	}
	for path, c := range m.counters {
		out = append(out, &MetricSnapshot{Path: path, Type: TypeCounter, Data: c.snapshot()})
	}
	for path, s := range m.successFail {
		out = append(out, &MetricSnapshot{Path: path, Type: TypeSuccessFail, Data: s.snapshot()})
	}
	for path, o := range m.outcomes {
		out = append(out, &MetricSnapshot{Path: path, Type: TypeOutcome, Data: o.snapshot()})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Type < out[j].Type
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Uptime returns how long the manager has been collecting
func (m *MetricsManager) Uptime() time.Duration {
	return time.Since(m.started)
}

// Reset drops every in-memory metric. Used by tests.
func (m *MetricsManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings = make(map[string]*TimingMetric)
	m.counters = make(map[string]*CounterMetric)
	m.successFail = make(map[string]*SuccessFailMetric)
	m.outcomes = make(map[string]*OutcomeMetric)
}
