package supervisor

import "time"

// StreamKind identifies which output channel of a job produced a line.
type StreamKind string

const (
	StreamStdout StreamKind = "stdout"
	StreamStderr StreamKind = "stderr"
)

// OutputEvent carries a single line of job output. Data always includes the
// trailing newline. Events are fire-and-forget; ordering is guaranteed only
// within a single stream of a single job.
type OutputEvent struct {
	Script    string     `json:"script"`
	TabID     string     `json:"tabId"`
	Kind      StreamKind `json:"type"`
	Data      string     `json:"data"`
	Timestamp time.Time  `json:"ts"`
}

// ExitEvent reports the natural termination of a registered job. Code is -1
// when the exit status could not be determined (for example when the process
// was killed by a signal). Exactly one ExitEvent is emitted per registration
// that reaches natural termination; manual stops emit none.
type ExitEvent struct {
	Script    string    `json:"script"`
	TabID     string    `json:"tabId"`
	Code      int       `json:"code"`
	Timestamp time.Time `json:"ts"`
}

// Bridge receives supervisor events for delivery to the UI. Implementations
// must not block: OnOutput is invoked synchronously from the stream relays,
// so a blocking bridge stalls the stream that called it.
type Bridge interface {
	OnOutput(OutputEvent)
	OnExit(ExitEvent)
}

// Fanout delivers each event to every sink. Nil sinks are skipped.
type Fanout []Bridge

func (f Fanout) OnOutput(event OutputEvent) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		sink.OnOutput(event)
	}
}

func (f Fanout) OnExit(event ExitEvent) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		sink.OnExit(event)
	}
}
