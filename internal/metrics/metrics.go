package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	jobsRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scriptdeck",
		Name:      "jobs_running",
		Help:      "Number of script jobs currently registered.",
	})

	scriptExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scriptdeck",
		Name:      "script_exits_total",
		Help:      "Total number of natural script terminations observed.",
	}, []string{"script"})

	portKillAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scriptdeck",
		Name:      "port_kill_attempts_total",
		Help:      "Total number of PIDs signalled by port cleanup operations.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "scriptdeck",
		Name:      "build_info",
		Help:      "Build metadata for the running scriptdeck binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(jobsRunning, scriptExits, portKillAttempts, buildInfo)
}

// Registry returns the Prometheus registry containing all scriptdeck metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetJobsRunning records the current size of the job registry.
func SetJobsRunning(n int) {
	if n < 0 {
		n = 0
	}
	jobsRunning.Set(float64(n))
}

// IncScriptExit counts one natural termination for the named script.
func IncScriptExit(script string) {
	if script == "" {
		script = "unknown"
	}
	scriptExits.WithLabelValues(script).Inc()
}

// AddPortKillAttempts counts PIDs a port cleanup attempted to signal.
func AddPortKillAttempts(n int) {
	if n <= 0 {
		return
	}
	portKillAttempts.Add(float64(n))
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
