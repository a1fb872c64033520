//go:build windows

package portreap

import "syscall"

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const processTerminate = 0x0001

// forceKill terminates a Windows process by PID via TerminateProcess.
func forceKill(pid int) error {
	if pid <= 0 {
		return nil
	}
	handle, _, err := procOpenProcess.Call(uintptr(processTerminate), uintptr(0), uintptr(uint32(pid)))
	if handle == 0 {
		// If we can't open the process, it likely doesn't exist anymore.
		// Common during rapid process termination; treat as terminated.
		_ = err
		return nil
	}
	defer func() { _, _, _ = procCloseHandle.Call(handle) }()

	ret, _, err := procTerminateProcess.Call(handle, uintptr(1))
	if ret == 0 {
		return err
	}
	return nil
}
