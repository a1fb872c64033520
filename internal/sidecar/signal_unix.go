//go:build !windows

package sidecar

import (
	"errors"
	"os/exec"
	"syscall"
)

// terminateGroup sends SIGTERM to the sidecar's process group.
func terminateGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGTERM)
	if err == syscall.ESRCH {
		return nil
	}
	return err
}

// killGroup sends SIGKILL to the sidecar's process group.
func killGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if err == syscall.ESRCH {
		return nil
	}
	return err
}

// exitStatusFrom converts a cmd.Wait error into an ExitStatus.
func exitStatusFrom(err error) ExitStatus {
	if err == nil {
		return ExitStatus{Code: 0}
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return ExitStatus{Code: -1, Signal: ws.Signal().String()}
			}
			return ExitStatus{Code: ws.ExitStatus()}
		}
		return ExitStatus{Code: ee.ExitCode()}
	}
	return ExitStatus{Code: -1}
}
