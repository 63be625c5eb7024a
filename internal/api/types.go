package api

import (
	stdcontext "context"

	"github.com/scriptdeck/scriptdeck/internal/ports"
	"github.com/scriptdeck/scriptdeck/internal/project"
)

// LoadProjectRequest asks the daemon to open a project directory.
type LoadProjectRequest struct {
	Path string `json:"path"`
}

// RunScriptRequest starts a script in a tab.
type RunScriptRequest struct {
	Path   string `json:"path"`
	Script string `json:"script"`
	TabID  string `json:"tabId"`
}

// StopScriptRequest stops a running script in a tab.
type StopScriptRequest struct {
	Script string `json:"script"`
	TabID  string `json:"tabId"`
}

// InstallRequest runs a dependency install for a tab. The request blocks
// until the install completes.
type InstallRequest struct {
	Path  string `json:"path"`
	TabID string `json:"tabId"`
}

// ReloadBrowserRequest reloads browser tabs for a local dev-server port.
type ReloadBrowserRequest struct {
	Port int `json:"port"`
}

// InstallResult reports whether the install command exited successfully.
type InstallResult struct {
	Success bool `json:"success"`
}

// PortActionResult carries a human-readable status for a port operation.
type PortActionResult struct {
	Message string `json:"message"`
}

// Controller exposes daemon operations required by the UI surface.
type Controller interface {
	DefaultPath(stdcontext.Context) string
	LoadProject(ctx stdcontext.Context, path string) (*project.Info, error)
	RunScript(ctx stdcontext.Context, path, script, tabID string) error
	StopScript(ctx stdcontext.Context, script, tabID string) error
	RunningScripts(stdcontext.Context) []string
	InstallDependencies(ctx stdcontext.Context, path, tabID string) (bool, error)
	ListOpenPorts(stdcontext.Context) ([]ports.Listener, error)
	KillAllKnownPorts(stdcontext.Context) string
	KillDefaultPort(stdcontext.Context) string
	KillSinglePort(ctx stdcontext.Context, port int) string
	ReloadBrowserTab(ctx stdcontext.Context, port int)
}
