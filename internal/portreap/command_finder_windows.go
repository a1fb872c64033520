//go:build windows

package portreap

import (
	"os/exec"
)

// CommandFinder shells out to the platform's socket listing tool:
// lsof on Unix-like systems, netstat on Windows.
type CommandFinder struct{}

func (CommandFinder) PIDsOnPort(port int) ([]int, error) {
	out, err := exec.Command("netstat", "-ano", "-p", "TCP").Output()
	if err != nil {
		return nil, err
	}
	return parseNetstatOutput(out, port), nil
}

func (CommandFinder) Describe() string { return "cmd:netstat" }
