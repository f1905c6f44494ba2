package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/health"
)

// HealthController exposes the service health endpoint
type HealthController struct {
	checker *health.HealthChecker
}

// NewHealthController creates a new health controller
func NewHealthController(checker *health.HealthChecker) *HealthController {
	return &HealthController{checker: checker}
}

// RegisterRoutes registers the health route with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.GetHealth)
}

func (c *HealthController) GetHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.checker.GetHealthStatus(ctx.Request.Context()))
}
