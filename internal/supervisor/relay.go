package supervisor

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// maxLineBytes bounds a single output line. Bundlers and installers can
// print very long progress lines; a line exceeding this bound ends the
// relay with the rest of the stream unread.
const maxLineBytes = 1024 * 1024

// relayLines decodes r as newline-delimited text and forwards each line to
// the bridge as an OutputEvent, synchronously, before reading the next one.
// The trailing newline the scanner strips is restored so the UI can append
// chunks verbatim. The relay stops at EOF or on a read error and never
// retries; a killed process closes its pipes, which ends the relay
// naturally.
func relayLines(r io.Reader, kind StreamKind, script, tabID string, bridge Bridge, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		bridge.OnOutput(OutputEvent{
			Script:    script,
			TabID:     tabID,
			Kind:      kind,
			Data:      scanner.Text() + "\n",
			Timestamp: time.Now(),
		})
	}
}
