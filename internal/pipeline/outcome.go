package pipeline

// State is where a run ended.
type State int

const (
	StateCompleted State = iota
	StateStoreFailed
	StateUnauthorized
	StateDownloadFailed
	StateTranscriptionFailed
	StatePanicked
)

func (s State) String() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateStoreFailed:
		return "store_failed"
	case StateUnauthorized:
		return "unauthorized"
	case StateDownloadFailed:
		return "download_failed"
	case StateTranscriptionFailed:
		return "transcription_failed"
	case StatePanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// Delivered reports whether the transcript reached the user.
func (s State) Delivered() bool {
	return s == StateCompleted || s == StateStoreFailed
}

// Outcome summarizes one run.
type Outcome struct {
	State      State
	Transcript string
	RecordURL  string
	Reason     string
}
