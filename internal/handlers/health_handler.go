package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/utils"
)

// HealthChecker is satisfied by services.ServiceManager.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	BaseHandler
	checker HealthChecker
	now     func() time.Time
}

func NewHealthHandler(checker HealthChecker, logger utils.Logger, production bool) *HealthHandler {
	return &HealthHandler{
		BaseHandler: NewBaseHandler(logger, production),
		checker:     checker,
		now:         time.Now,
	}
}

// Health reports liveness without touching the database.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "time": h.now().UTC().Format(time.RFC3339Nano)})
}

// DBPing round-trips to the database.
func (h *HealthHandler) DBPing(c *gin.Context) {
	if err := h.checker.HealthCheck(c.Request.Context()); err != nil {
		h.LogError(c, err, "Database ping failed")
		body := gin.H{"ok": false}
		if !h.production {
			body["error"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
