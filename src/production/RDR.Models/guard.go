package rdrmodels

import "time"

// GuardEvent is a derived zone-dwell record produced by the analysis
// pipeline. This service only reads them.
type GuardEvent struct {
	EventID        int64                    `json:"event_id" db:"event_id"`
	DeviceMac      string                   `json:"device_mac" db:"device_mac"`
	ZoneID         int                      `json:"zone_id" db:"zone_id"`
	StartTime      time.Time                `json:"start_time" db:"start_time"`
	EndTime        time.Time                `json:"end_time" db:"end_time"`
	Duration       int                      `json:"duration" db:"duration"`
	MaxSpeed       int                      `json:"max_speed" db:"max_speed"`
	SnapshotPoints []map[string]interface{} `json:"snapshot_points" db:"snapshot_points"`
}
