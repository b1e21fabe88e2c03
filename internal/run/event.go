package run

import "onboardify/internal/report"

// EventType tags the progress-event union.
type EventType string

const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
)

// Event is one entry of a run's output stream. A stream is zero or more
// progress events followed by exactly one result or error event.
type Event struct {
	Type    EventType      `json:"event_type"`
	Message string         `json:"message,omitempty"`
	Percent int            `json:"progress_percent,omitempty"`
	Report  *report.Report `json:"report,omitempty"`
	// ErrorKind carries the error taxonomy tag on error events
	// (validation, not-found, unauthorized, rate-limited, unknown).
	ErrorKind string `json:"error_kind,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventResult || e.Type == EventError
}

// State is a pipeline stage of the run state machine.
type State string

const (
	StateIdle         State = "idle"
	StateGathering    State = "gathering"
	StateClassifying  State = "classifying"
	StateInferring    State = "inferring"
	StateEnriching    State = "enriching"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// checkpoints are the fixed progress values emitted per stage transition.
// Percent is monotonically increasing across the stream.
var checkpoints = []struct {
	state   State
	percent int
	message string
}{
	{StateGathering, 10, "Gathering repository data"},
	{StateClassifying, 35, "Classifying key files"},
	{StateInferring, 50, "Inferring project structure"},
	{StateEnriching, 65, "Running AI enrichment"},
	{StateSynthesizing, 85, "Synthesizing report"},
}

func checkpointFor(state State) (int, string) {
	for _, c := range checkpoints {
		if c.state == state {
			return c.percent, c.message
		}
	}
	return 0, string(state)
}
