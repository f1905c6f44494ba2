package api_models

// DeviceSummary is one row of GET /api/v1/devices.
type DeviceSummary struct {
	DeviceMac     string  `json:"device_mac"`
	OnlineStatus  bool    `json:"online_status"`
	FirmwareVer   string  `json:"firmware_ver"`
	LastHeartbeat *string `json:"last_heartbeat"`
	ActiveViewers int     `json:"active_viewers"`
}

// DeviceDetail is the full shadow view of GET /api/v1/device/:mac.
type DeviceDetail struct {
	DeviceMac      string                 `json:"device_mac"`
	OnlineStatus   bool                   `json:"online_status"`
	FirmwareVer    string                 `json:"firmware_ver"`
	TrackMode      string                 `json:"track_mode"`
	BluetoothState bool                   `json:"bluetooth_state"`
	ZoneConfig     map[string]interface{} `json:"zone_config"`
	ActiveViewers  int                    `json:"active_viewers"`
	LastHeartbeat  *string                `json:"last_heartbeat"`
}

// CommandRequest is the body of POST /api/v1/device/command.
type CommandRequest struct {
	DeviceMac   string                 `json:"device_mac"`
	CommandType string                 `json:"command_type"`
	Payload     map[string]interface{} `json:"payload"`
}

// CommandAckRequest is the body of POST /api/v1/device/command/ack, the
// device-side acknowledgment that a SENT command ran.
type CommandAckRequest struct {
	CommandID int64 `json:"command_id"`
}

// HistorySample is one row of GET /api/v1/radar/history.
type HistorySample struct {
	TargetID   int    `json:"target_id"`
	PosX       int    `json:"pos_x"`
	PosY       int    `json:"pos_y"`
	Speed      int    `json:"speed"`
	Resolution int    `json:"resolution"`
	CreatedAt  string `json:"created_at"`
}

// GuardEventData is one row of GET /api/v1/guard/events.
type GuardEventData struct {
	EventID        int64                    `json:"event_id"`
	DeviceMac      string                   `json:"device_mac"`
	ZoneID         int                      `json:"zone_id"`
	StartTime      string                   `json:"start_time"`
	EndTime        string                   `json:"end_time"`
	Duration       int                      `json:"duration"`
	MaxSpeed       int                      `json:"max_speed"`
	SnapshotPoints []map[string]interface{} `json:"snapshot_points"`
}
