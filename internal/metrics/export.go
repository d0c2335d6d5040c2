package metrics

import "time"

// Package-level recorders for dot-import callers. All of them write to the
// process-wide manager returned by GetInstance.

func MetricInc(topic, name string)               { GetInstance().AddCounter(topic, name, 1) }
func MetricAdd(topic, name string, delta int64)  { GetInstance().AddCounter(topic, name, delta) }
func MetricSuccess(topic, op string)             { GetInstance().RecordSuccess(topic, op) }
func MetricFail(topic, op string)                { GetInstance().RecordFailure(topic, op, "") }
func MetricOutcome(topic, op, outcome string)    { GetInstance().RecordOutcome(topic, op, outcome) }
func MetricSince(topic, op string, t time.Time)  { MetricDuration(topic, op, time.Since(t)) }
func MetricFailWithReason(topic, op, why string) { GetInstance().RecordFailure(topic, op, why) }

func MetricDuration(topic, op string, d time.Duration) {
	GetInstance().RecordDuration(topic, op, d)
}

// MetricTimer starts a timing and returns the func that records it.
//
//	defer MetricTimer("stt", "transcribe")()
func MetricTimer(topic, op string) func() {
	start := time.Now()
	return func() { MetricSince(topic, op, start) }
}
