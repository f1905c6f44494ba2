package rdrmodels

import "time"

// Track modes a radar device can report.
const (
	TrackModeSingle = "single"
	TrackModeMulti  = "multi"
)

// DeviceShadow is the server's best-known current state for one device.
// It is created lazily on the first heartbeat or viewer connection and is
// never destroyed.
type DeviceShadow struct {
	DeviceMac      string                 `json:"device_mac" db:"device_mac"`
	LastHeartbeat  *time.Time             `json:"last_heartbeat" db:"last_heartbeat"`
	FirmwareVer    string                 `json:"firmware_ver" db:"firmware_ver"`
	TrackMode      string                 `json:"track_mode" db:"track_mode"`
	BluetoothState bool                   `json:"bluetooth_state" db:"bluetooth_state"`
	ZoneConfig     map[string]interface{} `json:"zone_config" db:"zone_config"`
	ActiveViewers  int                    `json:"active_viewers" db:"active_viewers"`
}

// Online reports whether the device counts as online at the given instant.
// The boundary is strict: a heartbeat exactly ttl old is offline. A device
// that has never sent a heartbeat is offline.
func (s DeviceShadow) Online(now time.Time, ttl time.Duration) bool {
	if s.LastHeartbeat == nil {
		return false
	}
	return now.Sub(*s.LastHeartbeat) < ttl
}
