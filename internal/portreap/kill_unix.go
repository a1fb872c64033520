//go:build !windows

package portreap

import "syscall"

// forceKill terminates a process by PID with SIGKILL.
func forceKill(pid int) error {
	if pid <= 0 {
		return nil
	}
	err := syscall.Kill(pid, syscall.SIGKILL)
	if err == syscall.ESRCH {
		// already gone
		return nil
	}
	return err
}
