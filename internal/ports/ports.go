package ports

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/scriptdeck/scriptdeck/internal/metrics"
)

// Listener is a read-only snapshot of a process bound to a listening port.
// Snapshots are never cached; every inspection re-queries the OS.
type Listener struct {
	Port        int    `json:"port"`
	PID         int    `json:"pid"`
	ProcessName string `json:"processName"`
}

// Inspector queries OS-level socket state and terminates processes bound to
// a port. Port killing is inherently racy: a PID can exit between query and
// signal, so KillPort reports the number of PIDs it attempted to signal,
// never confirmed deaths, and individual signal failures are ignored.
type Inspector interface {
	ListListeners(ctx context.Context, ports []int) ([]Listener, error)
	KillPort(ctx context.Context, port int) (int, error)
}

// KnownPorts is the fixed well-known set of dev-server ports scanned and
// cleaned by the batch operations, before any configured extras.
var KnownPorts = []int{
	3000, 3001, 3002, 3003, 3004, 3005, 3006, 3007, 3008, 3009, 3010,
	5173, // vite
	8000, 8080,
}

// KillMany applies KillPort to every port independently and concurrently.
// Failures on individual ports are logged and never abort the batch. It
// returns the total number of PIDs signalled across all ports.
func KillMany(ctx context.Context, insp Inspector, ports []int, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	counts := make([]int, len(ports))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, port := range ports {
		g.Go(func() error {
			n, err := insp.KillPort(gctx, port)
			if err != nil {
				logger.Debug("port cleanup failed", "port", port, "err", err)
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	metrics.AddPortKillAttempts(total)
	return total
}

// dedupe drops listeners already seen for the same (port, pid) pair,
// preserving first-seen order.
func dedupe(listeners []Listener) []Listener {
	type pair struct{ port, pid int }
	seen := make(map[pair]struct{}, len(listeners))
	out := listeners[:0]
	for _, l := range listeners {
		key := pair{l.Port, l.PID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
