//go:build windows

package sidecar

import (
	"os/exec"
	"syscall"
)

const (
	createNewProcessGroup = 0x00000200
	detachedProcess       = 0x00000008
)

// configureSysProcAttr starts the child in a new process group so it does
// not receive the launcher's console events. When detached is set the child
// additionally runs without inheriting the parent console.
func configureSysProcAttr(cmd *exec.Cmd, detached bool) {
	flags := uint32(createNewProcessGroup)
	if detached {
		flags |= detachedProcess
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: flags}
}
