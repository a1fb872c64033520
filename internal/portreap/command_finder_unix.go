//go:build !windows

package portreap

import (
	"errors"
	"fmt"
	"os/exec"
)

// CommandFinder shells out to the platform's socket listing tool:
// lsof on Unix-like systems, netstat on Windows.
type CommandFinder struct{}

func (CommandFinder) PIDsOnPort(port int) ([]int, error) {
	// lsof -ti :PORT prints one PID per line and exits 1 when none match.
	out, err := exec.Command("lsof", "-ti", fmt.Sprintf(":%d", port)).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			// no process on port
			return nil, nil
		}
		return nil, err
	}
	return parseLsofOutput(out), nil
}

func (CommandFinder) Describe() string { return "cmd:lsof" }
