// Package app wires the daemon's collaborators behind the api.Controller
// surface consumed by the HTTP layer.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/scriptdeck/scriptdeck/internal/browser"
	"github.com/scriptdeck/scriptdeck/internal/config"
	"github.com/scriptdeck/scriptdeck/internal/metrics"
	"github.com/scriptdeck/scriptdeck/internal/ports"
	"github.com/scriptdeck/scriptdeck/internal/project"
	"github.com/scriptdeck/scriptdeck/internal/settings"
	"github.com/scriptdeck/scriptdeck/internal/supervisor"
)

// nextLockFile is the stale dev-server lock artifact removed before
// server-like scripts start.
var nextLockFile = filepath.Join(".next", "dev", "lock")

// Options assembles an App. Config, Store and Inspector are required;
// everything else has defaults.
type Options struct {
	Config    config.Config
	Store     *settings.Store
	Inspector ports.Inspector
	Bridge    supervisor.Bridge
	Logger    *slog.Logger

	// ReloadBrowser overrides the browser automation used by
	// ReloadBrowserTab; tests stub it out.
	ReloadBrowser func(ctx context.Context, port int) error
}

// App implements api.Controller.
type App struct {
	cfg    config.Config
	store  *settings.Store
	insp   ports.Inspector
	logger *slog.Logger
	sup    *supervisor.Supervisor
	reload func(ctx context.Context, port int) error

	mu       sync.Mutex
	lastPath string
}

func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reload := opts.ReloadBrowser
	if reload == nil {
		reload = func(ctx context.Context, port int) error {
			return browser.ReloadTabs(ctx, browser.DefaultDevtoolsURL, port)
		}
	}

	a := &App{
		cfg:    opts.Config,
		store:  opts.Store,
		insp:   opts.Inspector,
		logger: logger,
		reload: reload,
	}
	a.sup = supervisor.New(supervisor.Config{
		Shell:          opts.Config.Shell,
		PackageManager: opts.Config.PackageManager,
		ServerScripts:  opts.Config.ServerScripts,
		Cleanup:        a.cleanupDevEnvironment,
		Bridge:         opts.Bridge,
		Logger:         logger,
	})
	return a
}

// DefaultPath picks the directory the UI's folder picker should open at:
// the saved project path, the path loaded earlier in this session, the home
// directory, then the filesystem root. Saved paths must still exist on disk.
func (a *App) DefaultPath(ctx context.Context) string {
	if saved, ok := a.store.LastProjectPath(); ok && dirExists(saved) {
		return saved
	}

	a.mu.Lock()
	last := a.lastPath
	a.mu.Unlock()
	if last != "" && dirExists(last) {
		return last
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return "/"
}

// LoadProject reads the manifest at path and, on success, remembers the path
// for the next session. Persistence failures are logged and swallowed.
func (a *App) LoadProject(ctx context.Context, path string) (*project.Info, error) {
	info, err := project.Load(path)
	if err != nil {
		return nil, err
	}

	if err := a.store.SetLastProjectPath(path); err != nil {
		a.logger.Debug("persist last project path failed", "err", err)
	}
	a.mu.Lock()
	a.lastPath = path
	a.mu.Unlock()

	return info, nil
}

func (a *App) RunScript(ctx context.Context, path, script, tabID string) error {
	return a.sup.RunScript(ctx, path, script, tabID)
}

func (a *App) StopScript(ctx context.Context, script, tabID string) error {
	return a.sup.StopScript(script, tabID)
}

func (a *App) RunningScripts(ctx context.Context) []string {
	return a.sup.RunningKeys()
}

func (a *App) InstallDependencies(ctx context.Context, path, tabID string) (bool, error) {
	return a.sup.InstallDependencies(ctx, path, tabID)
}

func (a *App) ListOpenPorts(ctx context.Context) ([]ports.Listener, error) {
	return a.insp.ListListeners(ctx, a.cfg.AllPorts())
}

func (a *App) KillAllKnownPorts(ctx context.Context) string {
	all := a.cfg.AllPorts()
	total := ports.KillMany(ctx, a.insp, all, a.logger)
	return fmt.Sprintf("Requested cleanup on %d port(s); signalled %d process(es)", len(all), total)
}

func (a *App) KillDefaultPort(ctx context.Context) string {
	return a.KillSinglePort(ctx, a.cfg.DefaultPort)
}

func (a *App) KillSinglePort(ctx context.Context, port int) string {
	attempted, err := a.insp.KillPort(ctx, port)
	if err != nil {
		a.logger.Debug("kill port failed", "port", port, "err", err)
		attempted = 0
	}
	metrics.AddPortKillAttempts(attempted)
	if attempted > 0 {
		return fmt.Sprintf("Killed %d process(es) on port %d", attempted, port)
	}
	return fmt.Sprintf("No process found on port %d", port)
}

// ReloadBrowserTab asks the browser to reload tabs pointed at the port.
// Failures are expected (no browser, no debugging endpoint) and ignored.
func (a *App) ReloadBrowserTab(ctx context.Context, port int) {
	if err := a.reload(ctx, port); err != nil {
		a.logger.Debug("browser reload failed", "port", port, "err", err)
	}
}

// cleanupDevEnvironment clears leftovers from a crashed dev server: the
// framework lock file and whatever still squats on the default port. Runs
// before server-like scripts; never fatal.
func (a *App) cleanupDevEnvironment(ctx context.Context, projectPath string) {
	lock := filepath.Join(projectPath, nextLockFile)
	if _, err := os.Stat(lock); err == nil {
		if err := os.Remove(lock); err != nil {
			a.logger.Warn("remove stale lock file failed", "path", lock, "err", err)
		} else {
			a.logger.Info("removed stale lock file", "path", lock)
		}
	}

	if _, err := a.insp.KillPort(ctx, a.cfg.DefaultPort); err != nil {
		a.logger.Debug("free default port failed", "port", a.cfg.DefaultPort, "err", err)
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
