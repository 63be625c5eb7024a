package ports

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// commandRunner runs an external tool and returns its stdout. Swapped out in
// tests so parsing can be exercised without lsof installed.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// LsofInspector shells out to lsof. It only relies on the tool emitting
// whitespace-columnar text with a header row and the process name and PID in
// the first two columns, so equivalents can be substituted per platform.
type LsofInspector struct {
	run commandRunner
}

func NewLsofInspector() *LsofInspector {
	return &LsofInspector{run: runCommand}
}

// ListListeners queries each port with lsof and collects the listening
// processes. Ports with no listeners (lsof exits non-zero) contribute
// nothing; malformed rows are skipped silently. Results are deduplicated by
// (port, pid).
func (l *LsofInspector) ListListeners(ctx context.Context, ports []int) ([]Listener, error) {
	var results []Listener
	for _, port := range ports {
		out, err := l.run(ctx, "lsof", "-i", fmt.Sprintf(":%d", port), "-sTCP:LISTEN", "-n", "-P")
		if err != nil {
			// lsof exits 1 when nothing matches.
			continue
		}
		lines := strings.Split(string(out), "\n")
		if len(lines) < 2 {
			continue
		}
		for _, line := range lines[1:] {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			pid, err := strconv.Atoi(fields[1])
			if err != nil {
				continue
			}
			results = append(results, Listener{Port: port, PID: pid, ProcessName: fields[0]})
		}
	}
	return dedupe(results), nil
}

// KillPort sends SIGKILL to every PID listening on port. Signal failures are
// ignored; the returned count is the number of PIDs attempted.
func (l *LsofInspector) KillPort(ctx context.Context, port int) (int, error) {
	out, err := l.run(ctx, "lsof", "-i", fmt.Sprintf(":%d", port), "-t")
	if err != nil {
		// No listeners on the port.
		return 0, nil
	}

	attempted := 0
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		if proc, err := os.FindProcess(pid); err == nil {
			_ = proc.Kill()
		}
		attempted++
	}
	return attempted, nil
}
