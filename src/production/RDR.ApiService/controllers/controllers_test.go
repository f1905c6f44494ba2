package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commandservice "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/command"
	syncservice "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/sync"
	config "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Config"
	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
	implementation "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

func historyWindow(deviceMac string) interfaces.TrackingQueryParams {
	now := time.Now()
	return interfaces.TrackingQueryParams{
		DeviceMac: deviceMac,
		From:      now.Add(-time.Hour),
		To:        now.Add(time.Minute),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(topic string, event api_models.RadarDataEvent) {}

type testEnv struct {
	router   *gin.Engine
	tracking *implementation.MemoryTrackingRepository
	shadows  *implementation.MemoryShadowRepository
	commands *implementation.MemoryCommandRepository
	guard    *implementation.MemoryGuardEventRepository
	cmdSvc   *commandservice.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		tracking: implementation.NewMemoryTrackingRepository(),
		shadows:  implementation.NewMemoryShadowRepository(),
		commands: implementation.NewMemoryCommandRepository(),
		guard:    implementation.NewMemoryGuardEventRepository(),
	}

	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json"})
	syncCfg := config.SyncConfig{
		HeartbeatTTL:         300 * time.Second,
		NextInterval:         1000,
		DefaultHistoryWindow: time.Hour,
		DefaultGuardWindow:   168 * time.Hour,
	}

	env.cmdSvc = commandservice.NewService(env.commands)
	syncSvc := syncservice.NewService(env.tracking, env.shadows, env.cmdSvc, nopPublisher{}, log, syncCfg.NextInterval)

	router := gin.New()
	NewSyncController(syncSvc, log).RegisterRoutes(router)
	NewDeviceController(env.shadows, env.cmdSvc, syncCfg, log).RegisterRoutes(router)
	NewHistoryController(env.tracking, env.guard, syncCfg, log).RegisterRoutes(router)

	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDeviceSyncEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/device/sync", api_models.SyncRequest{
		DeviceMac: "AA:BB",
		Targets: []api_models.SyncTarget{
			{},
			{X: 5, Y: 3, Speed: 10, Resolution: 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(200), body["code"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1000), data["next_interval"])
	assert.NotZero(t, data["server_time"])
	assert.Nil(t, data["pending_cmd"])

	// The sentinel was filtered before persistence.
	stored, err := env.tracking.GetHistory(context.Background(), historyWindow("AA:BB"))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].TargetID)
}

func TestDeviceSyncRejectsMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/device/sync", []byte("{not json"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "invalid JSON body", body["message"])
}

func TestCreateCommandValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/device/command", api_models.CommandRequest{CommandType: rdrmodels.CommandReboot})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "device_mac and command_type are required", decodeBody(t, w)["message"])

	w = env.do(t, http.MethodPost, "/api/v1/device/command", api_models.CommandRequest{DeviceMac: "AA:BB", CommandType: "FORMAT_DISK"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid command_type. Valid: [REBOOT SET_MODE SET_ZONE]", decodeBody(t, w)["message"])
}

func TestCommandLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/device/command", api_models.CommandRequest{
		DeviceMac:   "AA:BB",
		CommandType: rdrmodels.CommandSetMode,
		Payload:     map[string]interface{}{"mode": "single"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Command queued successfully", body["message"])
	commandID := int64(body["command_id"].(float64))
	require.Greater(t, commandID, int64(0))

	// Ack before delivery is refused.
	w = env.do(t, http.MethodPost, "/api/v1/device/command/ack", api_models.CommandAckRequest{CommandID: commandID})
	require.Equal(t, http.StatusNotFound, w.Code)

	// The device's next sync carries the command.
	w = env.do(t, http.MethodPost, "/api/v1/device/sync", api_models.SyncRequest{DeviceMac: "AA:BB"})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	pending := data["pending_cmd"].(map[string]interface{})
	assert.Equal(t, rdrmodels.CommandSetMode, pending["command_type"])
	assert.Equal(t, float64(commandID), pending["command_id"])

	w = env.do(t, http.MethodPost, "/api/v1/device/command/ack", api_models.CommandAckRequest{CommandID: commandID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Command acknowledged", decodeBody(t, w)["message"])
}

func TestAckCommandRequiresID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/device/command/ack", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "command_id is required", decodeBody(t, w)["message"])
}

func TestListDevices(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"data":[]}`, w.Body.String())

	require.NoError(t, env.shadows.RecordHeartbeat(context.Background(), "AA:BB", time.Now()))

	w = env.do(t, http.MethodGet, "/api/v1/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	devices := decodeBody(t, w)["data"].([]interface{})
	require.Len(t, devices, 1)

	device := devices[0].(map[string]interface{})
	assert.Equal(t, "AA:BB", device["device_mac"])
	assert.Equal(t, true, device["online_status"])
	assert.Equal(t, "unknown", device["firmware_ver"])
	assert.NotNil(t, device["last_heartbeat"])
}

func TestGetDeviceNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/device/AA:BB", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Device not found", decodeBody(t, w)["message"])
}

func TestRadarHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/radar/history", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "device_mac is required", decodeBody(t, w)["message"])

	w = env.do(t, http.MethodGet, "/api/v1/radar/history?device_mac=AA:BB&start_time=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid time format", decodeBody(t, w)["message"])

	now := time.Now()
	_, err := env.tracking.AppendSamples(context.Background(), []rdrmodels.TrackingSample{
		{DeviceMac: "AA:BB", TargetID: 1, PosX: 5, CreatedAt: now.Add(-time.Minute)},
	})
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/api/v1/radar/history?device_mac=AA:BB", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]interface{})
	require.Len(t, data, 1)

	sample := data[0].(map[string]interface{})
	assert.Equal(t, float64(1), sample["target_id"])
	assert.Equal(t, float64(5), sample["pos_x"])
}

func TestGuardEventsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/guard/events", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	now := time.Now()
	env.guard.Add(rdrmodels.GuardEvent{
		EventID:   1,
		DeviceMac: "AA:BB",
		ZoneID:    2,
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(-2*time.Hour + 30*time.Second),
		Duration:  30,
		MaxSpeed:  12,
	})
	env.guard.Add(rdrmodels.GuardEvent{
		EventID:   2,
		DeviceMac: "AA:BB",
		ZoneID:    2,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(-time.Hour + 10*time.Second),
		Duration:  10,
		MaxSpeed:  4,
	})

	w = env.do(t, http.MethodGet, "/api/v1/guard/events?device_mac=AA:BB", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]interface{})
	require.Len(t, data, 2)

	// Newest first.
	first := data[0].(map[string]interface{})
	second := data[1].(map[string]interface{})
	assert.Equal(t, float64(2), first["event_id"])
	assert.Equal(t, float64(1), second["event_id"])
}

func TestGuardEventsWindowFiltering(t *testing.T) {
	env := newTestEnv(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	env.guard.Add(rdrmodels.GuardEvent{
		EventID:   1,
		DeviceMac: "AA:BB",
		StartTime: base,
		EndTime:   base.Add(time.Minute),
	})

	path := fmt.Sprintf("/api/v1/guard/events?device_mac=AA:BB&start_time=%s&end_time=%s",
		"2025-06-01T09:00:00Z", "2025-06-01T09:30:00Z")
	w := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]interface{})
	assert.Empty(t, data)
}
