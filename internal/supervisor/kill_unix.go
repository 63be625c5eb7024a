//go:build !windows

package supervisor

import (
	"errors"
	"os/exec"
	"syscall"
)

func configureCmdSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// kill forcefully terminates the job's process group. Package-manager
// scripts fork freely (npm -> node -> dev server), so signalling only the
// direct child would leave the server running.
func (j *Job) kill() {
	if j.cmd == nil || j.cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-j.cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		// Fall back to the direct child when the group is already gone.
		_ = j.cmd.Process.Kill()
	}
}
