// Package api provides the gin HTTP handlers for prospector's external
// interface (§6): research, prospects, outreach, metrics/learning,
// realtime activity, and webhook management.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/outreachforge/prospector/pkg/activity"
	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/discovery"
	"github.com/outreachforge/prospector/pkg/learning"
	"github.com/outreachforge/prospector/pkg/outreach"
	"github.com/outreachforge/prospector/pkg/queue"
	"github.com/outreachforge/prospector/pkg/research"
	"github.com/outreachforge/prospector/pkg/scheduler"
	"github.com/outreachforge/prospector/pkg/storage"
)

// Server is the HTTP API server: a thin gin layer over the engines, wired
// after construction via its Set* methods so main can build pieces in
// whatever order its own dependency graph requires. Handler methods read
// these fields at request time, so Set* calls may happen any time before
// the first request is served.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	cfg   *config.Config
	store storage.Store
	clock clock.Clock

	research        *research.Pipeline
	discovery       *discovery.Engine
	outreachTracker *outreach.Tracker
	learning        *learning.Core
	scheduler       *scheduler.Scheduler
	bus             *activity.Bus
	hub             *activity.Hub
	webhooks        *activity.Dispatcher
	pool            *queue.WorkerPool // nil if no background workers wired; health-only
}

// NewServer builds the gin engine and registers every route.
func NewServer(cfg *config.Config, store storage.Store, clk clock.Clock) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(requestLogger())
	e.MaxMultipartMemory = 2 << 20

	s := &Server{engine: e, cfg: cfg, store: store, clock: clk}
	s.setupRoutes()
	return s
}

// SetResearch wires the Research Pipeline (§4.2).
func (s *Server) SetResearch(p *research.Pipeline) { s.research = p }

// SetDiscovery wires the Prospect Discovery Engine (§4.3).
func (s *Server) SetDiscovery(e *discovery.Engine) { s.discovery = e }

// SetOutreachTracker wires the engagement tracker used by §4.4's
// track-engagement endpoint. Generate/Prioritize/AssignSegments/BuildCadence
// are free functions and need no wiring.
func (s *Server) SetOutreachTracker(t *outreach.Tracker) { s.outreachTracker = t }

// SetLearning wires the Learning & Metrics Core (§4.5–4.6).
func (s *Server) SetLearning(c *learning.Core) { s.learning = c }

// SetScheduler wires §4.8 so its endpoints can trigger scheduling/runs
// directly instead of waiting for the next tick.
func (s *Server) SetScheduler(sched *scheduler.Scheduler) { s.scheduler = sched }

// SetActivity wires the bus and WebSocket hub behind /api/ws.
func (s *Server) SetActivity(bus *activity.Bus, hub *activity.Hub) {
	s.bus = bus
	s.hub = hub
}

// SetWebhookDispatcher wires the webhook CRUD endpoints' subscription side
// effect (EnsureSubscribed on create/update).
func (s *Server) SetWebhookDispatcher(d *activity.Dispatcher) { s.webhooks = d }

// SetWorkerPool wires the background task queue's pool for /health
// reporting. Optional: a deployment with no queued work can leave it nil.
func (s *Server) SetWorkerPool(p *queue.WorkerPool) { s.pool = p }

// ValidateWiring checks that every required Set* call was made, so a wiring
// gap fails fast at startup instead of as a 500 on first request.
func (s *Server) ValidateWiring() error {
	var errs []error
	if s.research == nil {
		errs = append(errs, fmt.Errorf("research pipeline not set (call SetResearch)"))
	}
	if s.discovery == nil {
		errs = append(errs, fmt.Errorf("discovery engine not set (call SetDiscovery)"))
	}
	if s.outreachTracker == nil {
		errs = append(errs, fmt.Errorf("outreach tracker not set (call SetOutreachTracker)"))
	}
	if s.learning == nil {
		errs = append(errs, fmt.Errorf("learning core not set (call SetLearning)"))
	}
	if s.scheduler == nil {
		errs = append(errs, fmt.Errorf("scheduler not set (call SetScheduler)"))
	}
	if s.bus == nil || s.hub == nil {
		errs = append(errs, fmt.Errorf("activity bus/hub not set (call SetActivity)"))
	}
	if s.webhooks == nil {
		errs = append(errs, fmt.Errorf("webhook dispatcher not set (call SetWebhookDispatcher)"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("server wiring incomplete: %w", errors.Join(errs...))
	}
	return nil
}

// setupRoutes registers every route. Handlers are methods on *Server so they
// always see the current field values, regardless of Set* call order.
func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api")
	{
		r := v1.Group("/research/enhanced")
		r.POST("/complete-workflow", s.completeWorkflowHandler)
		r.POST("/schedule-topics", s.scheduleTopicsHandler)
		r.POST("/run-scheduled", s.runScheduledHandler)
		r.POST("/auto-discover", s.autoDiscoverHandler)

		p := v1.Group("/prospects")
		p.POST("/discover", s.discoverProspectsHandler)
		p.POST("/approve", s.approveProspectsHandler)
		p.POST("/score", s.scoreProspectsHandler)

		o := v1.Group("/outreach")
		o.POST("/segment", s.segmentHandler)
		o.POST("/prioritize", s.prioritizeHandler)
		o.POST("/sequence/generate", s.generateSequenceHandler)
		o.POST("/cadence/weekly", s.weeklyCadenceHandler)
		o.POST("/track-engagement", s.trackEngagementHandler)
		o.POST("/metrics", s.outreachMetricsHandler)

		m := v1.Group("/metrics/enhanced")
		m.POST("/content/update", s.updateContentMetricHandler)
		m.POST("/prospects/update", s.updateProspectMetricHandler)
		m.POST("/learning/update-patterns", s.updatePatternsHandler)
		m.GET("/learning/patterns", s.listPatternsHandler)
		m.POST("/weekly-report", s.weeklyReportHandler)

		v1.GET("/ws", s.wsHandler)

		w := v1.Group("/webhooks")
		w.GET("", s.listWebhooksHandler)
		w.POST("", s.createWebhookHandler)
		w.PUT("/:id", s.updateWebhookHandler)
		w.DELETE("/:id", s.deleteWebhookHandler)
	}
}

// Start runs the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// StartWithListener runs the HTTP server on a pre-created listener. Used by
// tests that need a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slogRequest(c, time.Since(start))
	}
}

// now returns the server's injected clock, defaulting to wall-clock time.
func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
