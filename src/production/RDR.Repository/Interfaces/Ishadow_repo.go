package interfaces

import (
	"context"
	"time"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
)

// ShadowRepository maintains per-device shadow records. The first heartbeat
// or viewer event for an unknown device creates its shadow with defaults.
type ShadowRepository interface {
	// RecordHeartbeat sets the device's last heartbeat, creating the
	// shadow if it does not exist.
	RecordHeartbeat(ctx context.Context, deviceMac string, at time.Time) error

	// IncrementViewers adds one active viewer, creating the shadow if it
	// does not exist.
	IncrementViewers(ctx context.Context, deviceMac string) error

	// DecrementViewers removes one active viewer, clamped at zero.
	DecrementViewers(ctx context.Context, deviceMac string) error

	// GetShadow returns the shadow for a device, or nil if unknown.
	GetShadow(ctx context.Context, deviceMac string) (*rdrmodels.DeviceShadow, error)

	// ListShadows returns all known device shadows.
	ListShadows(ctx context.Context) ([]rdrmodels.DeviceShadow, error)
}
