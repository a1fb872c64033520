package sidecar

import (
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// killReapWait bounds how long Terminate waits for the monitor to reap the
// process after escalating to a force kill.
const killReapWait = 200 * time.Millisecond

// Handle is the live child-process handle returned by Launch. It owns the
// kill capability; the monitor goroutine started by Launch owns cmd.Wait,
// so Handle methods never wait on the process directly. They wait on the
// done channel the monitor closes after reaping.
//
// Ownership transfers with the handle itself: Launch hands it to the
// Registry, the shutdown path takes it back via Registry.Take.
type Handle struct {
	name      string
	cmd       *exec.Cmd
	startedAt time.Time

	mu     sync.Mutex
	done   chan struct{} // closed by the monitor when cmd.Wait returns
	exited bool
	status ExitStatus
}

func newHandle(name string, cmd *exec.Cmd) *Handle {
	return &Handle{
		name:      name,
		cmd:       cmd,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func (h *Handle) Name() string { return h.name }

func (h *Handle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *Handle) StartedAt() time.Time { return h.startedAt }

// Done is closed once the process has been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Status reports the exit status and whether the process has exited.
func (h *Handle) Status() (ExitStatus, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status, h.exited
}

// markExited records the exit status and releases Done waiters.
// Called exactly once, by the monitor goroutine.
func (h *Handle) markExited(status ExitStatus) {
	h.mu.Lock()
	h.status = status
	h.exited = true
	h.mu.Unlock()
	close(h.done)
}

// Terminate attempts a graceful stop with SIGKILL escalation: SIGTERM to
// the process group, wait up to grace for the monitor to reap it, then
// SIGKILL and a short bounded wait. It returns an error only when the
// process may still be alive afterwards; an already-exited sidecar is a
// no-op success.
func (h *Handle) Terminate(grace time.Duration) error {
	if _, exited := h.Status(); exited {
		return nil
	}
	pid := h.PID()
	if pid <= 0 {
		return nil
	}
	// Delivery failure usually means the process died under us; fall
	// through to the done wait to confirm.
	_ = terminateGroup(pid)
	select {
	case <-h.done:
		return nil
	case <-time.After(grace):
	}
	if err := killGroup(pid); err != nil {
		return fmt.Errorf("force kill %s (pid %d): %w", h.name, pid, err)
	}
	select {
	case <-h.done:
		return nil
	case <-time.After(killReapWait):
		return fmt.Errorf("sidecar %s (pid %d) not reaped after kill", h.name, pid)
	}
}

// Kill force-kills the process group immediately and waits briefly for the
// monitor to reap it.
func (h *Handle) Kill() error {
	if _, exited := h.Status(); exited {
		return nil
	}
	pid := h.PID()
	if pid <= 0 {
		return nil
	}
	if err := killGroup(pid); err != nil {
		return fmt.Errorf("kill %s (pid %d): %w", h.name, pid, err)
	}
	select {
	case <-h.done:
	case <-time.After(killReapWait):
		// best-effort
	}
	return nil
}
