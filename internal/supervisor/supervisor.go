package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/scriptdeck/scriptdeck/internal/metrics"
)

var (
	// ErrAlreadyRunning is returned when a run request collides with a job
	// registered under the same (tab, script) key.
	ErrAlreadyRunning = errors.New("script already running")

	// ErrNotRunning is returned by StopScript for keys with no registered job.
	ErrNotRunning = errors.New("script not running")
)

// CleanupFunc prepares the environment before a server-like script starts,
// typically by removing stale lock artifacts and freeing the default dev
// port. Implementations are best-effort and must not fail the run.
type CleanupFunc func(ctx context.Context, projectPath string)

// Config assembles a Supervisor. Zero values fall back to the login shell
// from $SHELL and npm as the package manager.
type Config struct {
	Shell          string
	PackageManager string
	ServerScripts  []string
	Cleanup        CleanupFunc
	Bridge         Bridge
	Logger         *slog.Logger
}

// Supervisor orchestrates spawn, stream, monitor, exit-notify and
// deregistration for package-manager jobs. One Supervisor serves all tabs;
// the registry it owns is the only mutable shared state.
type Supervisor struct {
	shell         string
	pm            string
	serverScripts map[string]struct{}
	cleanup       CleanupFunc
	bridge        Bridge
	logger        *slog.Logger
	registry      *Registry
}

func New(cfg Config) *Supervisor {
	shell := cfg.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		if runtime.GOOS == "darwin" {
			shell = "/bin/zsh"
		} else {
			shell = "/bin/sh"
		}
	}
	pm := cfg.PackageManager
	if pm == "" {
		pm = "npm"
	}
	bridge := cfg.Bridge
	if bridge == nil {
		bridge = noopBridge{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	serverScripts := make(map[string]struct{}, len(cfg.ServerScripts))
	for _, name := range cfg.ServerScripts {
		serverScripts[name] = struct{}{}
	}
	return &Supervisor{
		shell:         shell,
		pm:            pm,
		serverScripts: serverScripts,
		cleanup:       cfg.Cleanup,
		bridge:        bridge,
		logger:        logger,
		registry:      NewRegistry(),
	}
}

// RunningKeys reports every registered job as a "tabId:script" string.
func (s *Supervisor) RunningKeys() []string {
	keys := s.registry.Keys()
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = key.String()
	}
	return out
}

// RunScript launches the named package-manager script for a tab. The call
// returns once the job is registered and monitored; output and the eventual
// exit notification arrive through the bridge.
func (s *Supervisor) RunScript(ctx context.Context, projectPath, script, tabID string) error {
	key := Key{TabID: tabID, Script: script}
	if s.registry.Contains(key) {
		return fmt.Errorf("script %q in tab %s: %w", script, tabID, ErrAlreadyRunning)
	}

	if _, serverLike := s.serverScripts[script]; serverLike && s.cleanup != nil {
		s.cleanup(ctx, projectPath)
	}

	job, drained, err := s.spawn(projectPath, s.pm+" run "+script, script, tabID)
	if err != nil {
		return err
	}

	if !s.registry.TryRegister(job) {
		// Lost a race with a concurrent run of the same key after the
		// collision check. The registered job wins; this one is disposed of
		// without ever surfacing an exit.
		job.kill()
		go func() {
			<-drained
			_ = job.cmd.Wait()
		}()
		return fmt.Errorf("script %q in tab %s: %w", script, tabID, ErrAlreadyRunning)
	}

	metrics.SetJobsRunning(len(s.registry.Keys()))
	s.logger.Info("script started", "script", script, "tab", tabID, "pid", job.cmd.Process.Pid)

	go s.monitor(job, drained)
	return nil
}

// StopScript removes the job registered under (tabID, script) and
// force-kills its process group. No ExitEvent is emitted for manual stops;
// the monitor observes the missing registration and exits silently. A second
// stop for the same key fails with ErrNotRunning since the entry is gone.
func (s *Supervisor) StopScript(script, tabID string) error {
	key := Key{TabID: tabID, Script: script}
	if !s.registry.Terminate(key) {
		return fmt.Errorf("script %q in tab %s: %w", script, tabID, ErrNotRunning)
	}
	metrics.SetJobsRunning(len(s.registry.Keys()))
	s.logger.Info("script stopped", "script", script, "tab", tabID)
	return nil
}

// InstallDependencies runs "<pm> install" in the project directory and
// blocks until it exits, returning whether the install succeeded. Installs
// are never registered and have no stop control beyond ctx cancellation,
// which kills the process.
func (s *Supervisor) InstallDependencies(ctx context.Context, projectPath, tabID string) (bool, error) {
	job, drained, err := s.spawn(projectPath, s.pm+" install", "install", tabID)
	if err != nil {
		return false, err
	}

	select {
	case <-drained:
	case <-ctx.Done():
		job.kill()
		<-drained
		_ = job.cmd.Wait()
		return false, ctx.Err()
	}

	err = job.cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &exitErr):
		return false, nil
	default:
		return false, fmt.Errorf("wait for install: %w", err)
	}
}

// spawn starts commandLine under a login shell in dir and attaches one relay
// per output stream. The returned channel closes once both relays reach EOF.
// The job is deliberately not bound to a request context: its lifetime is
// controlled by StopScript or natural exit, not by the caller's request.
func (s *Supervisor) spawn(dir, commandLine, script, tabID string) (*Job, <-chan struct{}, error) {
	cmd := exec.Command(s.shell, "-lc", commandLine)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "FORCE_COLOR=1")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("script %s stdout: %w", script, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("script %s stderr: %w", script, err)
	}

	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start script %s: %w", script, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go relayLines(stdout, StreamStdout, script, tabID, s.bridge, &wg)
	go relayLines(stderr, StreamStderr, script, tabID, s.bridge, &wg)

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	job := &Job{
		Key:       Key{TabID: tabID, Script: script},
		StartedAt: time.Now(),
		cmd:       cmd,
	}
	return job, drained, nil
}

// monitor waits for the job to terminate, then removes it from the registry
// before emitting the exit notification. Removal uses a compare-and-remove
// against this exact registration: if the key is gone or was re-registered,
// the job was stopped manually and nothing is emitted.
func (s *Supervisor) monitor(job *Job, drained <-chan struct{}) {
	<-drained
	err := job.cmd.Wait()

	code := -1
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		code = job.cmd.ProcessState.ExitCode()
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	default:
		// Wait failed without an exit status. Deregister silently; the UI
		// must treat the job as an unknown outcome, not a success.
		if s.registry.removeJob(job) {
			metrics.SetJobsRunning(len(s.registry.Keys()))
			s.logger.Warn("script vanished", "script", job.Key.Script, "tab", job.Key.TabID, "err", err)
		}
		return
	}

	if !s.registry.removeJob(job) {
		return
	}
	metrics.SetJobsRunning(len(s.registry.Keys()))
	metrics.IncScriptExit(job.Key.Script)
	s.logger.Info("script exited", "script", job.Key.Script, "tab", job.Key.TabID, "code", code)

	s.bridge.OnExit(ExitEvent{
		Script:    job.Key.Script,
		TabID:     job.Key.TabID,
		Code:      code,
		Timestamp: time.Now(),
	})
}

type noopBridge struct{}

func (noopBridge) OnOutput(OutputEvent) {}
func (noopBridge) OnExit(ExitEvent)     {}
