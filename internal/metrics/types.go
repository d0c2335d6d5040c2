package metrics

import (
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	TypeTiming      MetricType = "timing"
	TypeCounter     MetricType = "counter"
	TypeSuccessFail MetricType = "success_fail"
	TypeOutcome     MetricType = "outcome"
)

// TimingMetric tracks timing statistics
type TimingMetric struct {
	mu    sync.RWMutex
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration
}

// CounterMetric tracks incrementing values
type CounterMetric struct {
	mu    sync.RWMutex
	Value int64
	Last  time.Time
}

// SuccessFailMetric tracks success and failure counts
type SuccessFailMetric struct {
	mu             sync.RWMutex
	Success        int64
	Failures       int64
	LastSuccess    time.Time
	LastFailure    time.Time
	FailureReasons map[string]int64
}

// OutcomeMetric tracks how often each terminal outcome was reached
type OutcomeMetric struct {
	mu       sync.RWMutex
	Outcomes map[string]int64
	Last     string
}

// MetricSnapshot represents a point-in-time view of a metric
type MetricSnapshot struct {
	Path string      `json:"path"`
	Type MetricType  `json:"type"`
	Data interface{} `json:"data"`
}

// TimingSnapshot for JSON serialization
type TimingSnapshot struct {
	Count  int64   `json:"count"`
	AvgMs  float64 `json:"avg_ms"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	LastMs float64 `json:"last_ms"`
}

// CounterSnapshot for JSON serialization
type CounterSnapshot struct {
	Value int64 `json:"value"`
}

// SuccessFailSnapshot for JSON serialization
type SuccessFailSnapshot struct {
	Success     int64            `json:"success"`
	Failures    int64            `json:"failures"`
	SuccessRate float64          `json:"success_rate"`
	Reasons     map[string]int64 `json:"reasons,omitempty"`
}

// OutcomeSnapshot for JSON serialization
type OutcomeSnapshot struct {
	Outcomes map[string]int64 `json:"outcomes"`
	Last     string           `json:"last,omitempty"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (t *TimingMetric) snapshot() TimingSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := TimingSnapshot{
		Count:  t.Count,
		MinMs:  ms(t.Min),
		MaxMs:  ms(t.Max),
		LastMs: ms(t.Last),
	}
	if t.Count > 0 {
		s.AvgMs = ms(t.Total) / float64(t.Count)
	}
	return s
}

func (c *CounterMetric) snapshot() CounterSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CounterSnapshot{Value: c.Value}
}

func (s *SuccessFailMetric) snapshot() SuccessFailSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := SuccessFailSnapshot{Success: s.Success, Failures: s.Failures}
	if total := s.Success + s.Failures; total > 0 {
		snap.SuccessRate = float64(s.Success) / float64(total)
	}
	if len(s.FailureReasons) > 0 {
		snap.Reasons = make(map[string]int64, len(s.FailureReasons))
		for k, v := range s.FailureReasons {
			snap.Reasons[k] = v
		}
	}
	return snap
}

func (o *OutcomeMetric) snapshot() OutcomeSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap := OutcomeSnapshot{Outcomes: make(map[string]int64, len(o.Outcomes)), Last: o.Last}
	for k, v := range o.Outcomes {
		snap.Outcomes[k] = v
	}
	return snap
}
