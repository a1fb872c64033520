package sidecar

import (
	"fmt"
	"strings"
)

// EventType classifies what the sidecar's output channel produced.
type EventType int

const (
	// EventStdout carries one line of the sidecar's standard output.
	EventStdout EventType = iota
	// EventStderr carries one line of the sidecar's standard error.
	EventStderr
	// EventSpawnError carries a stream-level failure message. It does not
	// end the event stream.
	EventSpawnError
	// EventTerminated carries the exit status. It is the final event; the
	// channel is closed right after it.
	EventTerminated
)

func (t EventType) String() string {
	switch t {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventSpawnError:
		return "spawn_error"
	case EventTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// ExitStatus is the platform exit representation of a terminated sidecar.
// Code is -1 when the process was ended by a signal (Signal then names it)
// or when no exit code could be determined.
type ExitStatus struct {
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal:" + s.Signal
	}
	return fmt.Sprintf("code:%d", s.Code)
}

// Event is one item of the sidecar's lifecycle/output stream.
type Event struct {
	Type   EventType
	Line   []byte
	Err    string
	Status ExitStatus
}

// decodeLine converts raw output bytes to text, replacing invalid UTF-8
// rather than failing.
func decodeLine(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
