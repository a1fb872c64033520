package sidecar

import (
	"os/exec"
	"strings"

	"github.com/workany/launcher/internal/logger"
)

// Spec describes the sidecar service process to be launched.
type Spec struct {
	Name     string        `json:"name" mapstructure:"name"`
	Command  string        `json:"command" mapstructure:"command"`   // command to start the sidecar (shell-aware)
	WorkDir  string        `json:"work_dir" mapstructure:"work_dir"` // optional working dir
	Env      []string      `json:"env" mapstructure:"env"`           // optional extra env (K=V)
	Detached bool          `json:"detached" mapstructure:"detached"` // start in a new session instead of a process group
	Log      logger.Config `json:"log" mapstructure:"log"`           // mirrored output destinations
}

// BuildCommand constructs an *exec.Cmd for the given spec.Command.
// It avoids invoking a shell when not necessary; when metacharacters are
// present the platform shell is used.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		return getShellCommand(cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// ok: intentional execution, command comes from launcher config
	// #nosec G204
	return exec.Command(name, args...)
}
