package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/database"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SystemHandler reports dependency health and worker queue depth.
type SystemHandler struct {
	probes    map[string]database.Pinger
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(probes map[string]database.Pinger, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		probes:    probes,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Returns 503 when any dependency is down so load balancers stop routing here.
func (h *SystemHandler) Health(c *gin.Context) {
	status, healthy := database.Check(c.Request.Context(), h.probes)

	body := gin.H{
		"status":       "ok",
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
		"dependencies": status,
	}
	if !healthy {
		body["status"] = "degraded"
		h.log.Warn().Interface("dependencies", status).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Queues godoc
// GET /api/v1/admin/system/queues
func (h *SystemHandler) Queues(c *gin.Context) {
	ctx := c.Request.Context()
	pipe := h.rdb.Pipeline()
	pending := pipe.LLen(ctx, config.WorkerKey.PersistSubmissionsQueue)
	dead := pipe.LLen(ctx, config.WorkerKey.DeadSubmissionsQueue)
	if _, err := pipe.Exec(ctx); err != nil {
		failFromService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"queues": gin.H{
			config.WorkerKey.PersistSubmissionsQueue: pending.Val(),
			config.WorkerKey.DeadSubmissionsQueue:    dead.Val(),
		},
	})
}
