package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/broadcast"
	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
)

// WebSocketController hands viewer connections to the broadcast hub
type WebSocketController struct {
	hub    *broadcast.Hub
	logger *logger.Logger
}

// NewWebSocketController creates a new websocket controller
func NewWebSocketController(hub *broadcast.Hub, logger *logger.Logger) *WebSocketController {
	return &WebSocketController{hub: hub, logger: logger}
}

// RegisterRoutes registers the live stream route with Gin
func (c *WebSocketController) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/radar/live", c.Live)
}

// Live upgrades the connection and joins the viewer to the device's room.
// The call blocks for the lifetime of the connection.
func (c *WebSocketController) Live(ctx *gin.Context) {
	deviceMac := ctx.Query("mac")
	if deviceMac == "" {
		ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "mac is required"})
		return
	}

	if err := c.hub.Serve(ctx.Writer, ctx.Request, deviceMac); err != nil {
		c.logger.ErrorWithError(err, "WebSocket upgrade failed")
	}
}
