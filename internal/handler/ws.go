package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxi24/internal/ws"
)

// WSHandler upgrades subscribers to a websocket event stream.
type WSHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *ws.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Subscribe handles GET /v1/ws/:subscriberId
func (h *WSHandler) Subscribe(c *gin.Context) {
	subscriberID := c.Param("subscriberId")
	if err := h.hub.Serve(c.Writer, c.Request, subscriberID); err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.String("subscriber_id", subscriberID), zap.Error(err))
	}
}
