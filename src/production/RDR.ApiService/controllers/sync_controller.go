package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	syncservice "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/sync"
	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
)

// SyncController handles device check-in requests
type SyncController struct {
	syncService *syncservice.Service
	logger      *logger.Logger
}

// NewSyncController creates a new sync controller
func NewSyncController(syncService *syncservice.Service, logger *logger.Logger) *SyncController {
	return &SyncController{syncService: syncService, logger: logger}
}

// RegisterRoutes registers the sync routes with Gin
func (c *SyncController) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/v1/device/sync", c.DeviceSync)
}

// DeviceSync runs one sync cycle for a device. A body that fails to parse
// is rejected; missing keys fall back to the protocol defaults inside the
// service.
func (c *SyncController) DeviceSync(ctx *gin.Context) {
	var req api_models.SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "invalid JSON body"})
		return
	}

	result, err := c.syncService.Process(ctx.Request.Context(), req)
	if err != nil {
		c.logger.ErrorWithError(err, "Sync cycle failed")
		ctx.JSON(http.StatusServiceUnavailable, api_models.Response{Code: http.StatusServiceUnavailable, Message: "storage unavailable, retry later"})
		return
	}

	ctx.JSON(http.StatusOK, api_models.Response{Code: http.StatusOK, Data: result.Data})
}
