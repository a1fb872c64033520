//go:build windows

package sidecar

import "os/exec"

// getShellCommand wraps script in cmd.exe.
func getShellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("cmd", "/c", script)
}
