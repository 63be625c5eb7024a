package supervisor

import (
	"strings"
	"sync"
	"testing"
)

type recordingBridge struct {
	mu      sync.Mutex
	outputs []OutputEvent
	exits   []ExitEvent
	exited  chan ExitEvent
	emitted chan OutputEvent
}

func newRecordingBridge() *recordingBridge {
	return &recordingBridge{
		exited:  make(chan ExitEvent, 16),
		emitted: make(chan OutputEvent, 256),
	}
}

func (b *recordingBridge) OnOutput(event OutputEvent) {
	b.mu.Lock()
	b.outputs = append(b.outputs, event)
	b.mu.Unlock()
	select {
	case b.emitted <- event:
	default:
	}
}

func (b *recordingBridge) OnExit(event ExitEvent) {
	b.mu.Lock()
	b.exits = append(b.exits, event)
	b.mu.Unlock()
	b.exited <- event
}

func (b *recordingBridge) outputLines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := make([]string, len(b.outputs))
	for i, event := range b.outputs {
		lines[i] = event.Data
	}
	return lines
}

func (b *recordingBridge) exitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.exits)
}

func TestRelayLinesForwardsEachLineWithNewline(t *testing.T) {
	bridge := newRecordingBridge()
	var wg sync.WaitGroup
	wg.Add(1)
	relayLines(strings.NewReader("one\ntwo\nthree\n"), StreamStdout, "dev", "tab-1", bridge, &wg)
	wg.Wait()

	lines := bridge.outputLines()
	want := []string{"one\n", "two\n", "three\n"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	for _, event := range bridge.outputs {
		if event.Script != "dev" || event.TabID != "tab-1" || event.Kind != StreamStdout {
			t.Fatalf("unexpected event metadata: %+v", event)
		}
	}
}

func TestRelayLinesEmitsUnterminatedFinalLine(t *testing.T) {
	bridge := newRecordingBridge()
	var wg sync.WaitGroup
	wg.Add(1)
	relayLines(strings.NewReader("partial"), StreamStderr, "build", "tab-2", bridge, &wg)
	wg.Wait()

	lines := bridge.outputLines()
	if len(lines) != 1 || lines[0] != "partial\n" {
		t.Fatalf("got %q, want [\"partial\\n\"]", lines)
	}
	if bridge.outputs[0].Kind != StreamStderr {
		t.Fatalf("kind = %q, want %q", bridge.outputs[0].Kind, StreamStderr)
	}
}

func TestRelayLinesEmitsNothingForEmptyStream(t *testing.T) {
	bridge := newRecordingBridge()
	var wg sync.WaitGroup
	wg.Add(1)
	relayLines(strings.NewReader(""), StreamStdout, "dev", "tab-1", bridge, &wg)
	wg.Wait()

	if len(bridge.outputLines()) != 0 {
		t.Fatalf("expected no events, got %q", bridge.outputLines())
	}
}
