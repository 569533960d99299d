package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/queue"
	"github.com/outreachforge/prospector/pkg/storage"
	"github.com/outreachforge/prospector/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// HealthCheck is one subsystem's contribution to the /health body.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is GET /health's body.
type HealthResponse struct {
	Status        string                  `json:"status"`
	Version       string                  `json:"version"`
	Configuration config.Stats            `json:"configuration"`
	Checks        map[string]HealthCheck  `json:"checks"`
	WorkerPool    *queue.PoolHealth       `json:"worker_pool,omitempty"`
}

// healthHandler handles GET /health. Only prospector's own components
// (storage, worker pool) are checked — external provider reachability is
// excluded so a flaky upstream API never flips this into "unhealthy" and
// triggers an orchestrator restart.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	if _, err := s.store.QueryAllUsers(reqCtx, storage.CollectionTasks, nil, nil, 1); err != nil {
		status = healthStatusUnhealthy
		checks["storage"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		checks["storage"] = HealthCheck{Status: healthStatusHealthy}
	}

	var poolHealth *queue.PoolHealth
	if s.pool != nil {
		poolHealth = s.pool.Health()
		if poolHealth != nil && !poolHealth.IsHealthy {
			if status == healthStatusHealthy {
				status = healthStatusDegraded
			}
			msg := healthStatusUnhealthy
			if poolHealth.StoreError != "" {
				msg = poolHealth.StoreError
			}
			checks["worker_pool"] = HealthCheck{Status: healthStatusDegraded, Message: msg}
		} else {
			checks["worker_pool"] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	resp := &HealthResponse{Status: status, Version: version.Full(), Checks: checks, WorkerPool: poolHealth}
	if s.cfg != nil {
		resp.Configuration = s.cfg.Stats()
	}
	c.JSON(httpStatus, resp)
}
