package ports

import (
	"context"

	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// PsutilInspector enumerates listeners through the kernel's connection
// tables instead of shelling out. It serves hosts without lsof and needs no
// output parsing.
type PsutilInspector struct{}

func NewPsutilInspector() *PsutilInspector {
	return &PsutilInspector{}
}

func (p *PsutilInspector) ListListeners(ctx context.Context, ports []int) ([]Listener, error) {
	wanted := make(map[int]struct{}, len(ports))
	for _, port := range ports {
		wanted[port] = struct{}{}
	}

	conns, err := gnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, err
	}

	var results []Listener
	for _, conn := range conns {
		if conn.Status != "LISTEN" || conn.Pid == 0 {
			continue
		}
		port := int(conn.Laddr.Port)
		if _, ok := wanted[port]; !ok {
			continue
		}
		name := ""
		if proc, err := process.NewProcessWithContext(ctx, conn.Pid); err == nil {
			if n, err := proc.NameWithContext(ctx); err == nil {
				name = n
			}
		}
		results = append(results, Listener{Port: port, PID: int(conn.Pid), ProcessName: name})
	}
	return dedupe(results), nil
}

func (p *PsutilInspector) KillPort(ctx context.Context, port int) (int, error) {
	listeners, err := p.ListListeners(ctx, []int{port})
	if err != nil {
		return 0, err
	}

	attempted := 0
	for _, l := range listeners {
		if proc, err := process.NewProcessWithContext(ctx, int32(l.PID)); err == nil {
			_ = proc.KillWithContext(ctx)
		}
		attempted++
	}
	return attempted, nil
}
