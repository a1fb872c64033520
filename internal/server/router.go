package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/workany/launcher/internal/metrics"
	"github.com/workany/launcher/internal/supervisor"
)

// Router provides the localhost control surface the GUI shell consumes.
// Endpoints:
//
//	GET  {basePath}/healthz   liveness of the launcher itself
//	GET  {basePath}/status    sidecar readiness snapshot
//	GET  {basePath}/metrics   Prometheus metrics
//	POST {basePath}/shutdown  triggers the application-exit path
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	sup      *supervisor.Supervisor
	basePath string
	shutdown func()
}

// NewRouter constructs a Router with configurable basePath.
func NewRouter(sup *supervisor.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath)}
}

// OnShutdown sets the callback fired by POST /shutdown. The callback is
// expected to feed the same exit path as a termination signal, so a second
// trigger is harmless.
func (r *Router) OnShutdown(fn func()) { r.shutdown = fn }

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/status", r.handleStatus)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	group.POST("/shutdown", r.handleShutdown)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, sup *supervisor.Supervisor, onShutdown func()) (*http.Server, error) {
	r := NewRouter(sup, basePath)
	r.OnShutdown(onShutdown)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleHealthz(c *gin.Context) {
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.sup.Status())
}

func (r *Router) handleShutdown(c *gin.Context) {
	if r.shutdown != nil {
		r.shutdown()
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}
