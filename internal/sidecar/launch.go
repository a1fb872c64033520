package sidecar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// eventBuffer is the capacity of the event channel. Producers block when the
// router falls this far behind.
const eventBuffer = 64

// maxLineSize bounds a single scanned output line.
const maxLineSize = 256 * 1024

// Launch resolves and starts the sidecar described by spec with mergedEnv as
// its environment, in its own process group. It returns the process handle
// and the event stream: stdout/stderr lines, stream errors, and finally a
// Terminated event after which the channel is closed.
//
// A resolution or start failure is returned immediately and is fatal to
// application startup; nothing is spawned and no stream exists.
func Launch(spec Spec, mergedEnv []string) (*Handle, <-chan Event, error) {
	if strings.TrimSpace(spec.Command) == "" {
		return nil, nil, fmt.Errorf("sidecar %q: empty command", spec.Name)
	}
	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(mergedEnv) > 0 {
		cmd.Env = mergedEnv
	}
	configureSysProcAttr(cmd, spec.Detached)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("sidecar %q: stdout pipe: %w", spec.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("sidecar %q: stderr pipe: %w", spec.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("sidecar %q: spawn: %w", spec.Name, err)
	}

	h := newHandle(spec.Name, cmd)
	events := make(chan Event, eventBuffer)

	var readers sync.WaitGroup
	readers.Add(2)
	go scanStream(&readers, stdout, EventStdout, events)
	go scanStream(&readers, stderr, EventStderr, events)

	// Monitor: sole owner of cmd.Wait. Pipe readers must drain before Wait
	// closes the pipes under them.
	go func() {
		readers.Wait()
		status := exitStatusFrom(cmd.Wait())
		h.markExited(status)
		events <- Event{Type: EventTerminated, Status: status}
		close(events)
	}()

	return h, events, nil
}

// scanStream reads one pipe line by line and pushes classified events.
// A read error (other than the pipe closing on exit) is surfaced as a
// stream error event, not a stop.
func scanStream(wg *sync.WaitGroup, r io.Reader, t EventType, events chan<- Event) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		line := make([]byte, len(sc.Bytes()))
		copy(line, sc.Bytes())
		events <- Event{Type: t, Line: line}
	}
	if err := sc.Err(); err != nil {
		events <- Event{Type: EventSpawnError, Err: fmt.Sprintf("%s read: %v", t, err)}
	}
}
