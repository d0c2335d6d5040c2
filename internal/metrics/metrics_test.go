package metrics

import (
	"path/filepath"
	"testing"
	"time"
)

func findSnapshot(t *testing.T, snaps []*MetricSnapshot, path string, typ MetricType) *MetricSnapshot {
	t.Helper()
	for _, s := range snaps {
		if s.Path == path && s.Type == typ {
			return s
		}
	}
	t.Fatalf("no %s metric at %q", typ, path)
	return nil
}

func TestManagerSnapshot(t *testing.T) {
	m := newManager()

	m.RecordDuration("stt", "transcribe", 100*time.Millisecond)
	m.RecordDuration("stt", "transcribe", 300*time.Millisecond)
	m.AddCounter("pipeline", "voice", 1)
	m.AddCounter("pipeline", "voice", 2)
	m.RecordSuccess("notion", "create")
	m.RecordFailure("notion", "create", "failed")
	m.RecordFailure("notion", "create", "failed")
	m.RecordOutcome("pipeline", "outcome", "stored")
	m.RecordOutcome("pipeline", "outcome", "transcription_failed")

	snaps := m.GetSnapshot()

	timing := findSnapshot(t, snaps, "stt/transcribe", TypeTiming).Data.(TimingSnapshot)
	if timing.Count != 2 || timing.MinMs != 100 || timing.MaxMs != 300 || timing.AvgMs != 200 || timing.LastMs != 300 {
		t.Errorf("timing = %+v", timing)
	}

	if got := m.Counter("pipeline", "voice"); got != 3 {
		t.Errorf("counter = %d, want 3", got)
	}

	sf := findSnapshot(t, snaps, "notion/create", TypeSuccessFail).Data.(SuccessFailSnapshot)
	if sf.Success != 1 || sf.Failures != 2 || sf.Reasons["failed"] != 2 {
		t.Errorf("success/fail = %+v", sf)
	}

	out := findSnapshot(t, snaps, "pipeline/outcome", TypeOutcome).Data.(OutcomeSnapshot)
	if out.Outcomes["stored"] != 1 || out.Last != "transcription_failed" {
		t.Errorf("outcome = %+v", out)
	}

	for i := 1; i < len(snaps); i++ {
		if snaps[i-1].Path > snaps[i].Path {
			t.Fatalf("snapshot not sorted: %q before %q", snaps[i-1].Path, snaps[i].Path)
		}
	}
}

func TestCounterUnknownPath(t *testing.T) {
	if got := newManager().Counter("nothing", "here"); got != 0 {
		t.Errorf("Counter = %d, want 0", got)
	}
}

func TestReset(t *testing.T) {
	m := newManager()
	m.AddCounter("a", "b", 1)
	m.Reset()
	if n := len(m.GetSnapshot()); n != 0 {
		t.Errorf("snapshot has %d entries after reset", n)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	cfg := PersistConfig{
		Persist:             true,
		DBPath:              filepath.Join(t.TempDir(), "metrics.db"),
		SaveIntervalSeconds: 3600,
	}

	m := newManager()
	if err := m.openDB(cfg); err != nil {
		t.Fatalf("openDB: %v", err)
	}
	m.AddCounter("pipeline", "voice", 5)
	m.RecordFailure("stt", "transcribe", "conversion")
	m.RecordOutcome("pipeline", "outcome", "stored")
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	restored := newManager()
	if err := restored.openDB(cfg); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer restored.Close()

	if got := restored.Counter("pipeline", "voice"); got != 5 {
		t.Errorf("restored counter = %d, want 5", got)
	}
	snaps := restored.GetSnapshot()
	sf := findSnapshot(t, snaps, "stt/transcribe", TypeSuccessFail).Data.(SuccessFailSnapshot)
	if sf.Failures != 1 || sf.Reasons["conversion"] != 1 {
		t.Errorf("restored success/fail = %+v", sf)
	}
	out := findSnapshot(t, snaps, "pipeline/outcome", TypeOutcome).Data.(OutcomeSnapshot)
	if out.Outcomes["stored"] != 1 {
		t.Errorf("restored outcome = %+v", out)
	}
}

func TestOpenStoreDisabled(t *testing.T) {
	if err := OpenStore(PersistConfig{}); err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if err := CloseStore(); err != nil {
		t.Fatalf("CloseStore: %v", err)
	}
}

func TestMetricTimer(t *testing.T) {
	GetInstance().Reset()
	done := MetricTimer("test", "timer")
	done()
	snap := findSnapshot(t, GetInstance().GetSnapshot(), "test/timer", TypeTiming).Data.(TimingSnapshot)
	if snap.Count != 1 {
		t.Errorf("timer count = %d, want 1", snap.Count)
	}
}
