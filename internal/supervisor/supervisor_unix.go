//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the child in its own process group so that a
// signal can be forwarded to the whole group (and its descendants) rather
// than just the direct child.
func configureProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// SignalGroup forwards sig to the process group rooted at pid.
func SignalGroup(pid int, sig int) error {
	return syscall.Kill(-pid, syscall.Signal(sig))
}
