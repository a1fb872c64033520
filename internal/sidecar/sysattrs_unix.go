//go:build !windows

package sidecar

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr places the child in its own process group so that
// terminateGroup/killGroup can signal the whole tree. When detached is set
// the child gets a new session instead, cutting it loose from the
// controlling terminal.
func configureSysProcAttr(cmd *exec.Cmd, detached bool) {
	if detached {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
