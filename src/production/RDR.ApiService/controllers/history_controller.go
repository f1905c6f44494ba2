package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Config"
	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

// HistoryController handles read-only projections over the stored tracking
// samples and guard events.
type HistoryController struct {
	trackingRepo interfaces.TrackingRepository
	guardRepo    interfaces.GuardEventRepository
	syncConfig   config.SyncConfig
	logger       *logger.Logger
}

// NewHistoryController creates a new history controller
func NewHistoryController(trackingRepo interfaces.TrackingRepository, guardRepo interfaces.GuardEventRepository, syncConfig config.SyncConfig, logger *logger.Logger) *HistoryController {
	return &HistoryController{
		trackingRepo: trackingRepo,
		guardRepo:    guardRepo,
		syncConfig:   syncConfig,
		logger:       logger,
	}
}

// RegisterRoutes registers the history routes with Gin
func (c *HistoryController) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/radar/history", c.RadarHistory)
	router.GET("/api/v1/guard/events", c.GuardEvents)
}

// RadarHistory returns persisted samples in a time window, ascending.
func (c *HistoryController) RadarHistory(ctx *gin.Context) {
	deviceMac := ctx.Query("device_mac")
	if deviceMac == "" {
		ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "device_mac is required"})
		return
	}

	from, to, ok := c.parseWindow(ctx, c.syncConfig.DefaultHistoryWindow)
	if !ok {
		return
	}

	samples, err := c.trackingRepo.GetHistory(ctx.Request.Context(), interfaces.TrackingQueryParams{
		DeviceMac: deviceMac,
		From:      from,
		To:        to,
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, api_models.Response{Code: http.StatusInternalServerError, Message: err.Error()})
		return
	}

	data := make([]api_models.HistorySample, 0, len(samples))
	for _, s := range samples {
		data = append(data, api_models.HistorySample{
			TargetID:   s.TargetID,
			PosX:       s.PosX,
			PosY:       s.PosY,
			Speed:      s.Speed,
			Resolution: s.Resolution,
			CreatedAt:  rdrmodels.FormatTimestamp(s.CreatedAt),
		})
	}

	ctx.JSON(http.StatusOK, api_models.Response{Code: http.StatusOK, Data: data})
}

// GuardEvents returns zone-dwell events in a time window, newest first.
func (c *HistoryController) GuardEvents(ctx *gin.Context) {
	deviceMac := ctx.Query("device_mac")
	if deviceMac == "" {
		ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "device_mac is required"})
		return
	}

	from, to, ok := c.parseWindow(ctx, c.syncConfig.DefaultGuardWindow)
	if !ok {
		return
	}

	events, err := c.guardRepo.GetEvents(ctx.Request.Context(), interfaces.GuardEventQueryParams{
		DeviceMac: deviceMac,
		From:      from,
		To:        to,
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, api_models.Response{Code: http.StatusInternalServerError, Message: err.Error()})
		return
	}

	data := make([]api_models.GuardEventData, 0, len(events))
	for _, e := range events {
		data = append(data, api_models.GuardEventData{
			EventID:        e.EventID,
			DeviceMac:      e.DeviceMac,
			ZoneID:         e.ZoneID,
			StartTime:      rdrmodels.FormatTimestamp(e.StartTime),
			EndTime:        rdrmodels.FormatTimestamp(e.EndTime),
			Duration:       e.Duration,
			MaxSpeed:       e.MaxSpeed,
			SnapshotPoints: e.SnapshotPoints,
		})
	}

	ctx.JSON(http.StatusOK, api_models.Response{Code: http.StatusOK, Data: data})
}

// parseWindow resolves start_time/end_time query params, falling back to
// [now-window, now]. On a parse failure it writes the 400 response and
// returns ok=false.
func (c *HistoryController) parseWindow(ctx *gin.Context, window time.Duration) (time.Time, time.Time, bool) {
	now := time.Now()
	from := now.Add(-window)
	to := now

	if s := ctx.Query("start_time"); s != "" {
		parsed, err := rdrmodels.ParseTimestamp(s)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "Invalid time format"})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if s := ctx.Query("end_time"); s != "" {
		parsed, err := rdrmodels.ParseTimestamp(s)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, api_models.Response{Code: http.StatusBadRequest, Message: "Invalid time format"})
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}

	return from, to, true
}
