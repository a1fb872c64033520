//go:build windows

package sidecar

import (
	"errors"
	"os"
	"os/exec"
)

// terminateGroup terminates the sidecar on Windows. There is no SIGTERM
// equivalent; TerminateProcess (via os.Process.Kill) is the reliable option.
func terminateGroup(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		// Process is already gone.
		return nil
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// killGroup force-kills the sidecar on Windows.
func killGroup(pid int) error {
	return terminateGroup(pid)
}

// exitStatusFrom converts a cmd.Wait error into an ExitStatus.
func exitStatusFrom(err error) ExitStatus {
	if err == nil {
		return ExitStatus{Code: 0}
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ExitStatus{Code: ee.ExitCode()}
	}
	return ExitStatus{Code: -1}
}
