package portreap

import (
	"strconv"
	"strings"
)

// Finder locates the PIDs of processes currently bound to a TCP port.
// Implementations may enumerate OS sockets directly or shell out to a
// platform tool. They must be safe for concurrent use.
type Finder interface {
	// PIDsOnPort returns the PIDs listening on port. An empty slice with a
	// nil error means nothing is bound, which is not a failure.
	PIDsOnPort(port int) ([]int, error)
	// Describe returns a human-readable description of the discovery method.
	Describe() string
}

// Chain tries each finder in order and returns the first non-empty result.
// A finder error moves on to the next finder; only the last error is kept.
type Chain []Finder

func (c Chain) PIDsOnPort(port int) ([]int, error) {
	var lastErr error
	for _, f := range c {
		pids, err := f.PIDsOnPort(port)
		if err != nil {
			lastErr = err
			continue
		}
		if len(pids) > 0 {
			return pids, nil
		}
	}
	return nil, lastErr
}

func (c Chain) Describe() string {
	parts := make([]string, 0, len(c))
	for _, f := range c {
		parts = append(parts, f.Describe())
	}
	return "chain:" + strings.Join(parts, ",")
}

// parseLsofOutput parses `lsof -ti :PORT` output: one PID per line.
func parseLsofOutput(out []byte) []int {
	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// parseNetstatOutput parses `netstat -ano -p TCP` output, keeping the PID
// column of LISTENING rows whose local address ends in :port.
func parseNetstatOutput(out []byte, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "LISTENING") {
			continue
		}
		fields := strings.Fields(line)
		// Proto LocalAddress ForeignAddress State PID
		if len(fields) < 5 {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}
