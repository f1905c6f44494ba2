package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	commandservice "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/command"
	config "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Config"
	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

// DeviceController handles device shadow and command requests
type DeviceController struct {
	shadowRepo     interfaces.ShadowRepository
	commandService *commandservice.Service
	syncConfig     config.SyncConfig
	logger         *logger.Logger
}

// NewDeviceController creates a new device controller
func NewDeviceController(shadowRepo interfaces.ShadowRepository, commandService *commandservice.Service, syncConfig config.SyncConfig, logger *logger.Logger) *DeviceController {
	return &DeviceController{
		shadowRepo:     shadowRepo,
		commandService: commandService,
		syncConfig:     syncConfig,
		logger:         logger,
	}
}

// RegisterRoutes registers the device routes with Gin
func (c *DeviceController) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/devices", c.ListDevices)
	router.GET("/api/v1/device/:mac", c.GetDevice)
	router.POST("/api/v1/device/command", c.CreateCommand)
	router.POST("/api/v1/device/command/ack", c.AckCommand)
}

// ListDevices returns every known device shadow with its derived online
// status.
func (c *DeviceController) ListDevices(ctx *gin.Context) {
	shadows, err := c.shadowRepo.ListShadows(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, api_models.Response{Code: http.StatusInternalServerError, Message: err.Error()})
		return
	}

	now := time.Now()
	devices := make([]api_models.DeviceSummary, 0, len(shadows))
	for _, shadow := range shadows {
		devices = append(devices, api_models.DeviceSummary{
			DeviceMac:     shadow.DeviceMac,
			OnlineStatus:  shadow.Online(now, c.syncConfig.HeartbeatTTL),
			FirmwareVer:   firmwareOrUnknown(shadow.FirmwareVer),
			LastHeartbeat: formatHeartbeat(shadow.LastHeartbeat),
			ActiveViewers: shadow.ActiveViewers,
		})
	}

	ctx.JSON(http.StatusOK, api_models.Response{Code: http.StatusOK, Data: devices})
}

// GetDevice returns the full shadow for one device.
func (c *DeviceController) GetDevice(ctx *gin.Context) {
	deviceMac := ctx.Param("mac")

	shadow, err := c.shadowRepo.GetShadow(ctx.Request.Context(), deviceMac)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, api_models.Response{Code: http.StatusInternalServerError, Message: err.Error()})
		return
	}
	if shadow == nil {
		ctx.JSON(http.StatusNotFound, api_models.Response{Code: http.StatusNotFound, Message: "Device not found"})
		return
	}

	detail := api_models.DeviceDetail{
		DeviceMac:      shadow.DeviceMac,
		OnlineStatus:   shadow.Online(time.Now(), c.syncConfig.HeartbeatTTL),
		FirmwareVer:    shadow.FirmwareVer,
		TrackMode:      shadow.TrackMode,
		BluetoothState: shadow.BluetoothState,
		ZoneConfig:     shadow.ZoneConfig,
		ActiveViewers:  shadow.ActiveViewers,
		LastHeartbeat:  formatHeartbeat(shadow.LastHeartbeat),
	}

	ctx.JSON(http.StatusOK, api_models.Response{Code: http.StatusOK, Data: detail})
}

// CreateCommand queues a command for delivery on the device's next sync.
func (c *DeviceController) CreateCommand(ctx *gin.Context) {
	var req api_models.CommandRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "invalid JSON body"})
		return
	}

	commandID, err := c.commandService.Enqueue(ctx.Request.Context(), req.DeviceMac, req.CommandType, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, commandservice.ErrMissingField):
			ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "device_mac and command_type are required"})
		case errors.Is(err, commandservice.ErrInvalidCommandKind):
			msg := fmt.Sprintf("Invalid command_type. Valid: [%s %s %s]", rdrmodels.CommandReboot, rdrmodels.CommandSetMode, rdrmodels.CommandSetZone)
			ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: msg})
		default:
			ctx.JSON(http.StatusInternalServerError, api_models.Response{Code: http.StatusInternalServerError, Message: err.Error()})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":       http.StatusOK,
		"message":    "Command queued successfully",
		"command_id": commandID,
	})
}

// AckCommand is the device acknowledgment path: SENT -> EXECUTED.
func (c *DeviceController) AckCommand(ctx *gin.Context) {
	var req api_models.CommandAckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.CommandID <= 0 {
		ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "command_id is required"})
		return
	}

	ok, err := c.commandService.Acknowledge(ctx.Request.Context(), req.CommandID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, api_models.Response{Code: http.StatusInternalServerError, Message: err.Error()})
		return
	}
	if !ok {
		ctx.JSON(http.StatusNotFound, api_models.Response{Code: http.StatusNotFound, Message: "Command not found"})
		return
	}

	ctx.JSON(http.StatusOK, api_models.Response{Code: http.StatusOK, Message: "Command acknowledged"})
}

func firmwareOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func formatHeartbeat(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := rdrmodels.FormatTimestamp(*t)
	return &s
}
