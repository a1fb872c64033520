//go:build !windows

package sidecar

import "os/exec"

// getShellCommand wraps script in the POSIX shell.
func getShellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("/bin/sh", "-c", script)
}
