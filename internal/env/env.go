package env

import (
	"os"
	"strings"
)

type Var map[string]string

// Env builds the environment handed to the sidecar process. Three layers,
// later wins: the OS environment, global overrides, then per-process "K=V"
// entries. Values may reference other variables as ${VAR}.
type Env struct {
	Var Var // global overrides
	env Var // OS environment, cached on first Merge
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS caches the current process environment as the base layer.
func (e *Env) FromOS() {
	base := make(Var, len(os.Environ()))
	applyKVs(base, os.Environ())
	e.env = base
}

// Set adds or replaces a global override.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// Unset removes a global override.
func (e *Env) Unset(k string) {
	delete(e.Var, k)
}

// Merge flattens the three layers into a "K=V" slice with ${VAR} expansion
// against the composed map. Expansion is single-pass, not recursive.
func (e *Env) Merge(perProc []string) []string {
	if e.env == nil {
		e.FromOS()
	}
	m := make(Var, len(e.env)+len(e.Var)+len(perProc))
	for k, v := range e.env {
		m[k] = v
	}
	for k, v := range e.Var {
		if k != "" {
			m[k] = v
		}
	}
	applyKVs(m, perProc)

	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+expand(v, m))
	}
	return out
}

// applyKVs folds "K=V" entries into m, dropping malformed or empty-key ones.
func applyKVs(m Var, kvs []string) {
	for _, kv := range kvs {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		m[kv[:i]] = kv[i+1:]
	}
}

func expand(s string, m Var) string {
	if !strings.Contains(s, "${") {
		return s
	}
	for k, v := range m {
		s = strings.ReplaceAll(s, "${"+k+"}", v)
	}
	return s
}
