//go:build windows

package supervisor

import "os/exec"

func configureCmdSysProcAttr(cmd *exec.Cmd) {}

// kill terminates the direct child only. Windows offers no process-group
// signalling without job objects, so grandchildren may outlive the job.
func (j *Job) kill() {
	if j.cmd == nil || j.cmd.Process == nil {
		return
	}
	_ = j.cmd.Process.Kill()
}
