package interfaces

import (
	"context"
	"time"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
)

// TrackingQueryParams represents parameters for history queries
type TrackingQueryParams struct {
	DeviceMac string
	From      time.Time
	To        time.Time
}

// TrackingRepository is the append-only tracking sample log.
type TrackingRepository interface {
	// AppendSamples persists a batch of already-validated samples and
	// returns the number written. Either all samples persist or none do.
	AppendSamples(ctx context.Context, samples []rdrmodels.TrackingSample) (int, error)

	// GetHistory returns persisted samples in the window, ascending by
	// created_at.
	GetHistory(ctx context.Context, params TrackingQueryParams) ([]rdrmodels.TrackingSample, error)
}
