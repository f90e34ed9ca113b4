//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Detach places the command in a new process group so that signals reach the
// engine and every child it spawns.
func Detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// Interrupt sends SIGINT to the process group led by pid.
func Interrupt(pid int) error {
	return syscall.Kill(-pid, syscall.SIGINT)
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; error ignored as cmd.Process.Kill() provides fallback
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
