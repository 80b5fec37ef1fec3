package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/questboard-api/internal/errors"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/services"
)

const defaultHeartbeat = 25 * time.Second

// EventsHandler streams the caller's level-ups as server-sent events.
type EventsHandler struct {
	log       *logger.Logger
	bridge    *services.LevelUpBridge
	heartbeat time.Duration
}

func NewEventsHandler(log *logger.Logger, bridge *services.LevelUpBridge) *EventsHandler {
	return &EventsHandler{
		log:       log.With("handler", "EventsHandler"),
		bridge:    bridge,
		heartbeat: defaultHeartbeat,
	}
}

// Stream holds the connection open and writes one "level_up" event per
// notice. The subscription ends when the client disconnects.
func (h *EventsHandler) Stream(c *gin.Context) {
	userID, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	notices, err := h.bridge.Watch(ctx, userID, companyID)
	if err != nil {
		h.log.Error("failed to subscribe to level-ups", "user_id", userID, "company_id", companyID, "error", err)
		apierrors.ServiceUnavailable(c, "Event stream unavailable")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case notice, ok := <-notices:
			if !ok {
				return
			}
			c.SSEvent("level_up", notice)
			c.Writer.Flush()
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		}
	}
}
