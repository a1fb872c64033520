package sidecar

import (
	"io"
	"log/slog"
)

// Router consumes a sidecar event stream on its own goroutine and dispatches
// each item to the logging sink: stdout lines at info, stderr lines at
// error, stream errors at error without stopping, and Terminated ends the
// loop. It never touches the registry and never blocks the launch caller.
type Router struct {
	log  *slog.Logger
	out  io.WriteCloser // optional file mirror for stdout lines
	errW io.WriteCloser // optional file mirror for stderr lines

	onTerminated func(ExitStatus)
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{log: log}
}

// MirrorTo additionally writes decoded output lines to the given writers
// (typically rotating log files). Either may be nil. The router closes them
// when the stream ends.
func (r *Router) MirrorTo(out, errW io.WriteCloser) {
	r.out = out
	r.errW = errW
}

// OnTerminated registers a callback invoked once when the Terminated event
// is routed, before Run returns.
func (r *Router) OnTerminated(fn func(ExitStatus)) { r.onTerminated = fn }

// Run consumes events until a Terminated event arrives or the stream
// closes. Events delivered after Terminated are not processed.
func (r *Router) Run(events <-chan Event) {
	defer r.closeWriters()
	for ev := range events {
		switch ev.Type {
		case EventStdout:
			line := decodeLine(ev.Line)
			r.log.Info(line, "stream", "stdout")
			r.mirror(r.out, line)
		case EventStderr:
			line := decodeLine(ev.Line)
			r.log.Error(line, "stream", "stderr")
			r.mirror(r.errW, line)
		case EventSpawnError:
			r.log.Error("sidecar stream error", "error", ev.Err)
		case EventTerminated:
			r.log.Info("sidecar terminated", "status", ev.Status.String())
			if r.onTerminated != nil {
				r.onTerminated(ev.Status)
			}
			return
		}
	}
}

func (r *Router) mirror(w io.Writer, line string) {
	if w == nil {
		return
	}
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		r.log.Warn("sidecar log mirror write failed", "error", err)
	}
}

func (r *Router) closeWriters() {
	if r.out != nil {
		_ = r.out.Close()
	}
	if r.errW != nil {
		_ = r.errW.Close()
	}
}
