package rdrmodels

import "time"

// Command kinds accepted by devices.
const (
	CommandReboot  = "REBOOT"
	CommandSetMode = "SET_MODE"
	CommandSetZone = "SET_ZONE"
)

// Command lifecycle states. Transitions are forward-only:
// PENDING -> SENT (by the sync handler, at most once) -> EXECUTED (device ack).
const (
	StatusPending  = "PENDING"
	StatusSent     = "SENT"
	StatusExecuted = "EXECUTED"
)

// ValidCommandType reports whether t is in the closed command set.
func ValidCommandType(t string) bool {
	switch t {
	case CommandReboot, CommandSetMode, CommandSetZone:
		return true
	}
	return false
}

// PendingCommand is one queued instruction for a device, delivered on the
// device's next sync. Queue order is FIFO by creation time, then by id.
type PendingCommand struct {
	ID          int64                  `json:"id" db:"id"`
	DeviceMac   string                 `json:"device_mac" db:"device_mac"`
	CommandType string                 `json:"command_type" db:"command_type"`
	Payload     map[string]interface{} `json:"payload" db:"payload"`
	Status      string                 `json:"status" db:"status"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}
