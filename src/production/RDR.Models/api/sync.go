package api_models

// SyncTarget is one raw detection in a device sync batch. A target with
// every field zero is the firmware's "no detection" sentinel.
type SyncTarget struct {
	X          int `json:"x"`
	Y          int `json:"y"`
	Speed      int `json:"speed"`
	Resolution int `json:"resolution"`
}

// SyncRequest is the body of POST /api/v1/device/sync. Both device_mac and
// batch_id are optional; the handler substitutes fallbacks.
type SyncRequest struct {
	DeviceMac string       `json:"device_mac"`
	BatchID   string       `json:"batch_id"`
	Targets   []SyncTarget `json:"targets"`
}

// PendingCommandData is the command block embedded in a sync response.
type PendingCommandData struct {
	CommandType string                 `json:"command_type"`
	Payload     map[string]interface{} `json:"payload"`
	CommandID   int64                  `json:"command_id"`
}

// SyncData is the data section of a successful sync response.
type SyncData struct {
	NextInterval int                 `json:"next_interval"`
	ServerTime   int64               `json:"server_time"`
	PendingCmd   *PendingCommandData `json:"pending_cmd"`
}

// RadarDataEvent is the message fanned out to live viewers of a device.
// Targets carries the original unfiltered batch, sentinels included;
// viewers expect the raw data.
type RadarDataEvent struct {
	DeviceMac string       `json:"device_mac"`
	Targets   []SyncTarget `json:"targets"`
	Timestamp float64      `json:"timestamp"`
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
